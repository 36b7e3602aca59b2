package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

// specSkeleton is served until a generated spec replaces it; the UI still loads
var specSkeleton = []byte(
	`{"openapi":"3.0.3","info":{"title":"Localist Catalog API","version":"0.1.0"},"paths":{}}`,
)

// MountSwagger mounts the Swagger UI and JSON spec if enabled
func MountSwagger(r Router, enabled bool) {
	if !enabled {
		return
	}
	r.Get("/api/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/docs/", http.StatusPermanentRedirect)
	})
	r.Get("/api/docs/doc.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(specSkeleton)
	})
	r.Handle("/api/docs/*", httpSwagger.Handler(
		httpSwagger.InstanceName("catalog"),
		httpSwagger.URL("/api/docs/doc.json"),
	))
}
