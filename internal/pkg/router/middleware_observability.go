package router

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/julienschmidt/httprouter"
	"github.com/nursyahid/leadpipe/internal/pkg/config"
	"github.com/nursyahid/leadpipe/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// bodyLogLimit caps how much of a request or response body ends up in
// the access log.
const bodyLogLimit = 32 << 10

// redactor hides configured field names in logged headers and bodies.
type redactor map[string]struct{}

func newRedactor(cfg config.Config) redactor {
	red := redactor{}
	if cfg == nil {
		return red
	}
	for _, name := range cfg.GetArray("instrument.log_mask_fields") {
		if name = strings.TrimSpace(strings.ToLower(name)); name != "" {
			red[name] = struct{}{}
		}
	}
	return red
}

func (red redactor) hidden(key string) bool {
	_, ok := red[strings.ToLower(key)]
	return ok
}

func (red redactor) headers(h http.Header) http.Header {
	if len(red) == 0 {
		return h
	}
	out := h.Clone()
	for key := range out {
		if red.hidden(key) {
			out.Set(key, "***")
		}
	}
	return out
}

// value walks decoded JSON and replaces hidden fields at any depth.
func (red redactor) value(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if red.hidden(k) {
				out[k] = "***"
			} else {
				out[k] = red.value(inner)
			}
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = red.value(inner)
		}
		return out
	default:
		return v
	}
}

// body renders a raw request body for logging: JSON and form payloads
// are decoded and redacted, anything else is logged as text when safe.
func (red redactor) body(contentType string, raw []byte) any {
	if len(raw) == 0 {
		return nil
	}

	var decoded any
	if json.Unmarshal(raw, &decoded) == nil {
		return red.value(decoded)
	}

	if strings.HasPrefix(strings.ToLower(contentType), "application/x-www-form-urlencoded") {
		if form, err := url.ParseQuery(string(raw)); err == nil {
			out := make(map[string]any, len(form))
			for k, vs := range form {
				switch {
				case red.hidden(k):
					out[k] = "***"
				case len(vs) == 1:
					out[k] = vs[0]
				default:
					out[k] = vs
				}
			}
			return out
		}
	}

	if !utf8.Valid(raw) {
		return "<binary body omitted>"
	}
	if len(raw) > bodyLogLimit {
		return string(raw[:bodyLogLimit]) + "...(truncated)"
	}
	return string(raw)
}

// responseTap wraps a ResponseWriter to remember the status code, the
// byte count, and a capped copy of the body for the access log.
type responseTap struct {
	http.ResponseWriter
	status  int
	written int
	copied  bytes.Buffer
	clipped bool
	err     error
}

func (t *responseTap) WriteHeader(code int) {
	t.status = code
	t.ResponseWriter.WriteHeader(code)
}

func (t *responseTap) Write(p []byte) (int, error) {
	if t.status == 0 {
		t.status = http.StatusOK
	}

	if !t.clipped && len(p) > 0 {
		room := bodyLogLimit - t.copied.Len()
		switch {
		case room <= 0:
			t.clipped = true
		case len(p) > room:
			t.copied.Write(p[:room])
			t.clipped = true
		default:
			t.copied.Write(p)
		}
	}

	n, err := t.ResponseWriter.Write(p)
	t.written += n
	return n, err
}

func (t *responseTap) SetError(err error) { t.err = err }

func (t *responseTap) Flush() {
	if f, ok := t.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

//nolint:err113 // it use dynamic error
func (t *responseTap) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := t.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	return h.Hijack()
}

func (t *responseTap) Push(target string, opts *http.PushOptions) error {
	if p, ok := t.ResponseWriter.(http.Pusher); ok {
		return p.Push(target, opts)
	}
	return http.ErrNotSupported
}

func (t *responseTap) statusOr200() int {
	if t.status == 0 {
		return http.StatusOK
	}
	return t.status
}

// loggedBody decodes the captured response copy the same way request
// bodies are handled, flagging it when the copy was cut short.
func (t *responseTap) loggedBody(red redactor) any {
	var body any
	raw := t.copied.Bytes()

	var decoded any
	switch {
	case json.Unmarshal(raw, &decoded) == nil:
		body = red.value(decoded)
	case utf8.Valid(raw):
		body = t.copied.String()
	case len(raw) > 0:
		body = "<binary body omitted>"
	}

	if t.clipped {
		body = map[string]any{"body": body, "truncated": true}
	}
	return body
}

func routePattern(r *http.Request) string {
	if p := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); p != "" {
		return p
	}
	return r.URL.Path
}

// snapshotBody reads up to the log limit from the request body and
// splices what it read back in front of the remainder.
func snapshotBody(r *http.Request) []byte {
	if r.Body == nil {
		return nil
	}

	//nolint:errcheck // best effort for logging only
	raw, _ := io.ReadAll(io.LimitReader(r.Body, bodyLogLimit+1))
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), r.Body))
	if len(raw) > bodyLogLimit {
		raw = raw[:bodyLogLimit]
	}
	return raw
}

func logArrival(ctx context.Context, r *http.Request, route string, raw []byte, red redactor) {
	slog.InfoContext(ctx, "request received",
		"method", r.Method,
		"path", route,
		"uri", r.RequestURI,
		"headers", red.headers(r.Header),
		"body", red.body(r.Header.Get("Content-Type"), raw),
	)
}

func middlewareObservability(cfg config.Config, ins instrument.Instrumentation) Middleware {
	red := newRedactor(cfg)
	tracer := ins.Tracer("http.server")
	meter := ins.Meter("http.server")

	hits, err := meter.Int64Counter("http.server.requests",
		metric.WithDescription("Number of HTTP requests received"))
	if err != nil {
		slog.Error("failed to create http request counter", "error", err)
	}

	latency, err := meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration in milliseconds"))
	if err != nil {
		slog.Error("failed to create http duration histogram", "error", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := routePattern(r)
			start := time.Now()

			ctx, span := tracer.Start(r.Context(), r.Method+" "+route,
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.HTTPRouteKey.String(route),
				))
			defer span.End()

			logArrival(ctx, r, route, snapshotBody(r), red)

			tap := &responseTap{ResponseWriter: w}
			next.ServeHTTP(tap, r.WithContext(ctx))

			status := tap.statusOr200()
			attrs := []attribute.KeyValue{
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
				semconv.HTTPResponseStatusCodeKey.Int(status),
			}

			if tap.err != nil {
				span.RecordError(tap.err)
			}
			switch {
			case status >= 500 && tap.err != nil:
				span.SetStatus(codes.Error, tap.err.Error())
			case status >= 500:
				span.SetStatus(codes.Error, http.StatusText(status))
			default:
				span.SetStatus(codes.Ok, "")
			}

			span.SetAttributes(attrs...)
			span.SetAttributes(
				semconv.NetworkProtocolVersionKey.String(r.Proto),
				semconv.ServerAddressKey.String(r.Host),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
				attribute.Int("http.response_content_length", tap.written),
			)

			if hits != nil {
				hits.Add(ctx, 1, metric.WithAttributes(attrs...))
			}
			if latency != nil {
				latency.Record(ctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(attrs...))
			}

			slog.InfoContext(ctx, "response sent",
				"method", r.Method,
				"path", route,
				"uri", r.RequestURI,
				"status", status,
				"bytes", tap.written,
				"latency_ms", time.Since(start).Milliseconds(),
				"body", tap.loggedBody(red),
			)
		})
	}
}
