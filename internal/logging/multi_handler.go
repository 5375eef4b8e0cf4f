package logging

import (
	"context"
	"log/slog"
)

// fanoutHandler duplicates each record to every child handler, so a
// line can land in the terminal, the journal and the ring buffer at
// once. A record is delivered only to children whose level admits it.
type fanoutHandler struct {
	children []slog.Handler
}

// NewMultiHandler combines handlers into a single slog.Handler.
func NewMultiHandler(handlers ...slog.Handler) slog.Handler {
	return &fanoutHandler{children: handlers}
}

func (f *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, child := range f.children {
		if child.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, child := range f.children {
		if child.Enabled(ctx, record.Level) {
			// One failing sink must not block the others.
			_ = child.Handle(ctx, record.Clone())
		}
	}
	return nil
}

func (f *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	children := make([]slog.Handler, len(f.children))
	for i, child := range f.children {
		children[i] = child.WithAttrs(attrs)
	}
	return &fanoutHandler{children: children}
}

func (f *fanoutHandler) WithGroup(name string) slog.Handler {
	children := make([]slog.Handler, len(f.children))
	for i, child := range f.children {
		children[i] = child.WithGroup(name)
	}
	return &fanoutHandler{children: children}
}
