package router

import (
	"net/http"
	"strings"

	"github.com/nursyahid/leadpipe/internal/pkg/config"
)

// middlewareMaintenance serves 503 for routes listed under
// app.maintenance.endpoints, so a single endpoint can be taken
// offline without stopping the process.
func middlewareMaintenance(cfg config.Config) Middleware {
	offline := map[string]struct{}{}
	if cfg != nil {
		for _, route := range cfg.GetArray("app.maintenance.endpoints") {
			if route = strings.TrimSpace(route); route != "" {
				offline[route] = struct{}{}
			}
		}
	}

	return func(next http.Handler) http.Handler {
		if len(offline) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, down := offline[routePattern(r)]; down {
				writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
