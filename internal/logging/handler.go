package logging

import (
	"context"
	"log/slog"
	"time"
)

// Handler returns an slog.Handler writing into the sink. Levels are mapped
// with FromLevel, so the sink's priority decides what is enabled.
func (s *Sink) Handler() slog.Handler {
	return &handler{sink: s}
}

type handler struct {
	sink   *Sink
	attrs  []slog.Attr
	prefix string
}

func (h *handler) Enabled(_ context.Context, l slog.Level) bool {
	return h.sink.WillLog(FromLevel(l))
}

func (h *handler) Handle(_ context.Context, r slog.Record) error {
	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = appendAttr(attrs, h.prefix, a)
		return true
	})

	t := r.Time
	if t.IsZero() {
		t = time.Now()
	}
	h.sink.emit(FromLevel(r.Level), t, r.Message, attrs)
	return nil
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	h2.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	h2.attrs = append(h2.attrs, h.attrs...)
	for _, a := range attrs {
		h2.attrs = appendAttr(h2.attrs, h.prefix, a)
	}
	return &h2
}

func (h *handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.prefix = h.prefix + name + "."
	return &h2
}

// appendAttr flattens groups into dotted keys.
func appendAttr(attrs []slog.Attr, prefix string, a slog.Attr) []slog.Attr {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return attrs
	}
	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p = prefix + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			attrs = appendAttr(attrs, p, ga)
		}
		return attrs
	}
	a.Key = prefix + a.Key
	return append(attrs, a)
}
