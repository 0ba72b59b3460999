package instrument

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// initLogging installs the process-wide slog handler: JSON to stdout,
// optionally bridged to the OTel log provider, with sensitive fields
// masked and the correlation id attached from the context.
func initLogging(serviceName string, lp *sdklog.LoggerProvider, maskFields []string) {
	stdout := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       slog.LevelInfo,
		AddSource:   true,
		ReplaceAttr: renameStandardAttrs,
	})

	var sink slog.Handler = stdout
	if lp != nil {
		sink = &fanoutHandler{sinks: []slog.Handler{
			stdout,
			otelslog.NewHandler(serviceName, otelslog.WithLoggerProvider(lp)),
		}}
	}

	slog.SetDefault(slog.New(&contextHandler{
		Handler:     &maskHandler{next: sink, hidden: fieldSet(maskFields)},
		serviceName: serviceName,
	}))
}

// renameStandardAttrs maps slog's default keys onto the log schema the
// collectors expect, and trims source paths to the module-relative part.
func renameStandardAttrs(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "ts"
	case slog.LevelKey:
		a.Key = "severity"
	case slog.SourceKey:
		src, ok := a.Value.Any().(*slog.Source)
		if !ok {
			break
		}
		if !strings.Contains(src.File, "/internal/") {
			return slog.Attr{}
		}
		rel := filepath.Join("internal", strings.SplitAfter(src.File, "/internal/")[1])
		return slog.Attr{
			Key:   "file",
			Value: slog.StringValue(fmt.Sprintf("%s:%d", rel, src.Line)),
		}
	}
	return a
}

type contextHandler struct {
	slog.Handler
	serviceName string
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if cID := GetCorrelationID(ctx); cID != "" {
		r.AddAttrs(slog.String("_cID", cID))
	}
	r.AddAttrs(slog.String("service", h.serviceName))
	return h.Handler.Handle(ctx, r)
}

// fanoutHandler delivers each record to every sink, returning the
// first error encountered.
type fanoutHandler struct {
	sinks []slog.Handler
}

func (f *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range f.sinks {
		if s.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, s := range f.sinks {
		if !s.Enabled(ctx, record.Level) {
			continue
		}
		if err := s.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(f.sinks))
	for i, s := range f.sinks {
		next[i] = s.WithAttrs(attrs)
	}
	return &fanoutHandler{sinks: next}
}

func (f *fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(f.sinks))
	for i, s := range f.sinks {
		next[i] = s.WithGroup(name)
	}
	return &fanoutHandler{sinks: next}
}

// maskHandler replaces configured field values with "***" before the
// record reaches any sink, including values nested in JSON payloads.
type maskHandler struct {
	next   slog.Handler
	hidden map[string]struct{}
}

func (h *maskHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *maskHandler) Handle(ctx context.Context, record slog.Record) error {
	if len(h.hidden) == 0 {
		return h.next.Handle(ctx, record)
	}

	clean := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		clean.AddAttrs(maskAttr(attr, h.hidden))
		return true
	})
	return h.next.Handle(ctx, clean)
}

func (h *maskHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &maskHandler{next: h.next.WithAttrs(attrs), hidden: h.hidden}
}

func (h *maskHandler) WithGroup(name string) slog.Handler {
	return &maskHandler{next: h.next.WithGroup(name), hidden: h.hidden}
}

func fieldSet(fields []string) map[string]struct{} {
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(strings.ToLower(f)); f != "" {
			set[f] = struct{}{}
		}
	}
	return set
}

func maskAttr(attr slog.Attr, hidden map[string]struct{}) slog.Attr {
	if _, found := hidden[strings.ToLower(attr.Key)]; found {
		return slog.String(attr.Key, "***")
	}

	switch attr.Value.Kind() {
	case slog.KindGroup:
		group := attr.Value.Group()
		clean := make([]slog.Attr, 0, len(group))
		for _, ga := range group {
			clean = append(clean, maskAttr(ga, hidden))
		}
		attr.Value = slog.GroupValue(clean...)
	case slog.KindString:
		if masked, ok := maskJSON([]byte(attr.Value.String()), hidden); ok {
			attr.Value = slog.StringValue(masked)
		}
	case slog.KindAny:
		val := attr.Value.Any()
		if val == nil {
			return attr
		}
		if masked, ok := maskStructured(val, hidden); ok {
			attr.Value = slog.AnyValue(masked)
			return attr
		}
		if b, ok := val.([]byte); ok {
			if masked, ok := maskJSON(b, hidden); ok {
				attr.Value = slog.StringValue(masked)
			}
		}
	}

	return attr
}

func maskStructured(val any, hidden map[string]struct{}) (any, bool) {
	switch v := val.(type) {
	case map[string]any:
		return maskData(v, hidden), true
	case map[string]string:
		converted := make(map[string]any, len(v))
		for k, inner := range v {
			converted[k] = inner
		}
		return maskData(converted, hidden), true
	case []any:
		return maskData(v, hidden), true
	default:
		return nil, false
	}
}

func maskJSON(payload []byte, hidden map[string]struct{}) (string, bool) {
	if len(payload) == 0 || (payload[0] != '{' && payload[0] != '[') {
		return "", false
	}

	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", false
	}

	out, err := json.Marshal(maskData(decoded, hidden))
	if err != nil {
		return "", false
	}
	return string(out), true
}

func maskData(v any, hidden map[string]struct{}) any {
	switch val := v.(type) {
	case map[string]any:
		clean := make(map[string]any, len(val))
		for k, inner := range val {
			if _, found := hidden[strings.ToLower(k)]; found {
				clean[k] = "***"
			} else {
				clean[k] = maskData(inner, hidden)
			}
		}
		return clean
	case []any:
		clean := make([]any, len(val))
		for i, inner := range val {
			clean[i] = maskData(inner, hidden)
		}
		return clean
	default:
		return v
	}
}
