// Package http mounts the catalog read endpoints
package http

import (
	"net/http"
	"strconv"

	phttp "localist/internal/platform/net/http"
	"localist/internal/services/catalog/domain"
	"localist/internal/services/catalog/service"
)

// CityStatsInput bounds the aggregation request
type CityStatsInput struct {
	Limit     int `json:"limit" validate:"omitempty,min=1,max=500"`
	MinVenues int `json:"min_venues" validate:"omitempty,min=1"`
}

// Register mounts the catalog routes on r
func Register(r phttp.Router, svc *service.Query) {
	r.Route("/venues", func(vr phttp.Router) {
		vr.Get("/", listVenues(svc))
	})
	r.Route("/stats", func(sr phttp.Router) {
		phttp.PostJSON(sr, "/cities", cityStats(svc))
	})
}

// listVenues godoc
//
//	@Summary		List venues
//	@Description	Pages through stored venue payloads, optionally filtered by city
//	@Tags			catalog
//	@Produce		json
//	@Param			city	query	string	false	"City id filter"
//	@Param			limit	query	int		false	"Page size"
//	@Param			offset	query	int		false	"Page offset"
//	@Success		200	{object}	phttp.Envelope
//	@Router			/venues [get]
func listVenues(svc *service.Query) phttp.Handler {
	return phttp.Handle(func(r *http.Request) phttp.Response {
		q := domain.ListQuery{
			CityID: r.URL.Query().Get("city"),
			Limit:  queryInt(r, "limit"),
			Offset: queryInt(r, "offset"),
		}
		rows, total, err := svc.ListVenues(r.Context(), q)
		if err != nil {
			return phttp.Error(err)
		}
		limit := q.Limit
		if limit <= 0 || limit > svc.Cfg.HardLimit {
			limit = svc.Cfg.HardLimit
		}
		offset := q.Offset
		if offset < 0 {
			offset = 0
		}
		return phttp.List(rows, total, offset, limit)
	})
}

// cityStats godoc
//
//	@Summary		Venue counts by city
//	@Description	Returns per-city venue counts sorted by count descending
//	@Tags			catalog
//	@Accept			json
//	@Produce		json
//	@Param			request	body	CityStatsInput	true	"Aggregation bounds"
//	@Success		200	{object}	phttp.Envelope
//	@Router			/stats/cities [post]
func cityStats(svc *service.Query) func(*http.Request, CityStatsInput) (any, error) {
	return func(r *http.Request, in CityStatsInput) (any, error) {
		return svc.AggByCity(r.Context(), in.Limit, in.MinVenues)
	}
}

func queryInt(r *http.Request, key string) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
