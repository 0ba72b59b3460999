package router

import (
	"net/http"
	"strings"

	"github.com/nursyahid/leadpipe/internal/pkg/instrument"
	"github.com/nursyahid/leadpipe/internal/pkg/uid"
)

const (
	// HeaderCorrelationID is the canonical request tracking header.
	HeaderCorrelationID = "X-Correlation-ID"
	// HeaderRequestID is an accepted alternative used by some proxies.
	HeaderRequestID = "X-Request-ID"

	maxCIDLen = 128
)

// sanitizeCID rejects header-injection attempts and bounds the length.
func sanitizeCID(v string) string {
	if strings.ContainsAny(v, "\r\n") {
		return ""
	}
	v = strings.TrimSpace(v)
	if len(v) > maxCIDLen {
		v = v[:maxCIDLen]
	}
	return v
}

// middlewareCorrelationID adopts the caller's correlation id, or mints
// one, and echoes it back so clients can report it.
func middlewareCorrelationID(gen uid.StringID) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cid := sanitizeCID(r.Header.Get(HeaderCorrelationID))
			if cid == "" {
				cid = sanitizeCID(r.Header.Get(HeaderRequestID))
			}
			if cid == "" && gen != nil {
				cid = gen.Generate()
			}

			if cid != "" {
				w.Header().Set(HeaderCorrelationID, cid)
				r = r.WithContext(instrument.SetCorrelationID(r.Context(), cid))
			}

			next.ServeHTTP(w, r)
		})
	}
}
