package service

import (
	"context"
	"encoding/json"

	"localist/internal/services/catalog/domain"
)

// QueryConfig for the read side
type QueryConfig struct {
	HardLimit int
}

// Query implements domain.QueryPort over backing storage with limit clamping
type Query struct {
	Storage domain.QueryPort
	Cfg     QueryConfig
}

// NewQuery constructs the read-side service
func NewQuery(storage domain.QueryPort, cfg QueryConfig) *Query {
	if cfg.HardLimit <= 0 {
		cfg.HardLimit = 100
	}
	return &Query{Storage: storage, Cfg: cfg}
}

// ListVenues implements domain.QueryPort
func (s *Query) ListVenues(ctx context.Context, q domain.ListQuery) ([]json.RawMessage, int, error) {
	if q.Limit <= 0 || q.Limit > s.Cfg.HardLimit {
		q.Limit = s.Cfg.HardLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return s.Storage.ListVenues(ctx, q)
}

// AggByCity implements domain.QueryPort
func (s *Query) AggByCity(ctx context.Context, limit, minVenues int) ([]domain.CityCount, error) {
	if limit <= 0 || limit > s.Cfg.HardLimit {
		limit = s.Cfg.HardLimit
	}
	if minVenues < 1 {
		minVenues = 1
	}
	return s.Storage.AggByCity(ctx, limit, minVenues)
}
