package observability

import "context"

type spanKey struct{}

type observerKey struct{}

// SpanFromContext extracts the active Span. Returns nil if none is present.
func SpanFromContext(ctx context.Context) Span {
	if ctx == nil {
		return nil
	}
	span, _ := ctx.Value(spanKey{}).(Span)
	return span
}

// ContextWithSpan returns a copy of ctx carrying span.
func ContextWithSpan(ctx context.Context, span Span) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, spanKey{}, span)
}

// ObserverFromContext returns the Provider attached to ctx, or Nop when none
// is attached. The result is never nil.
func ObserverFromContext(ctx context.Context) Provider {
	if ctx != nil {
		if observer, ok := ctx.Value(observerKey{}).(Provider); ok && observer != nil {
			return observer
		}
	}
	return Nop()
}

// ContextWithObserver returns a copy of ctx carrying observer.
func ContextWithObserver(ctx context.Context, observer Provider) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, observerKey{}, observer)
}
