package observability

import (
	"context"
	"sync"
	"testing"
)

type testContextKey string

func TestSpanFromContext_Empty(t *testing.T) {
	if span := SpanFromContext(context.Background()); span != nil {
		t.Errorf("Expected nil span from empty context, got %v", span)
	}
}

func TestSpanFromContext_WithSpan(t *testing.T) {
	mockSpan := &mockSpan{name: "relay.request"}

	ctx := ContextWithSpan(context.Background(), mockSpan)

	if span := SpanFromContext(ctx); span != mockSpan {
		t.Errorf("Expected the stored span instance, got %v", span)
	}
}

func TestContextWithSpan_Overwrite(t *testing.T) {
	span1 := &mockSpan{name: "span-1"}
	span2 := &mockSpan{name: "span-2"}

	ctx := ContextWithSpan(context.Background(), span1)
	ctx = ContextWithSpan(ctx, span2)

	if span := SpanFromContext(ctx); span != span2 {
		t.Errorf("Expected span2, got %v", span)
	}
}

// TestSpanFromContext_SurvivesWrapping verifies the span is still reachable
// after unrelated values are layered on top of the context.
func TestSpanFromContext_SurvivesWrapping(t *testing.T) {
	span := &mockSpan{name: "parent-span"}

	ctx := ContextWithSpan(context.Background(), span)
	ctx = context.WithValue(ctx, testContextKey("user"), "u-1")
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if SpanFromContext(ctx) != span {
		t.Errorf("Expected span to survive context wrapping")
	}
}

func TestContextWithSpan_Concurrent(t *testing.T) {
	ctx := context.Background()
	span := &mockSpan{name: "concurrent-span"}

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if SpanFromContext(ContextWithSpan(ctx, span)) != span {
				t.Errorf("Concurrent access failed")
			}
		}()
	}
	wg.Wait()
}

// TestContextWithObserver_RoundTrip verifies that the stored Provider is the
// exact instance handed back.
func TestContextWithObserver_RoundTrip(t *testing.T) {
	observer := &mockProvider{label: "round-trip-observer"}
	ctx := ContextWithObserver(context.Background(), observer)

	retrieved := ObserverFromContext(ctx)
	mock, ok := retrieved.(*mockProvider)
	if !ok {
		t.Fatalf("Retrieved observer is not *mockProvider, got %T", retrieved)
	}
	if mock != observer {
		t.Errorf("ObserverFromContext returned a different instance")
	}
}

// TestObserverFromContext_MissingKey ensures a context without an observer
// yields the no-op provider, never nil.
func TestObserverFromContext_MissingKey(t *testing.T) {
	observer := ObserverFromContext(context.Background())
	if observer == nil {
		t.Fatal("Expected no-op provider, got nil")
	}

	// Must be usable without panicking.
	ctx, span := observer.StartSpan(context.Background(), SpanRelayRequest)
	span.AddEvent(EventRelayStarted)
	span.End()
	observer.Counter(MetricRelayFragments).Add(ctx, 1)
	observer.Histogram(MetricRequestDuration).Record(ctx, 1.5)
	observer.Info(ctx, "ignored")
}

func TestObserverFromContext_NilContext(t *testing.T) {
	//nolint:staticcheck // nil context is part of the contract
	if observer := ObserverFromContext(nil); observer == nil {
		t.Error("Expected no-op provider from nil context, got nil")
	}
}

type mockSpan struct {
	name string
}

func (m *mockSpan) End()                                          {}
func (m *mockSpan) SetAttributes(attrs ...Attribute)              {}
func (m *mockSpan) SetStatus(code StatusCode, description string) {}
func (m *mockSpan) RecordError(err error)                         {}
func (m *mockSpan) AddEvent(name string, attrs ...Attribute)      {}

// mockProvider carries a label so round-trip tests can confirm identity.
type mockProvider struct {
	label string
}

func (m *mockProvider) StartSpan(ctx context.Context, _ string, _ ...Attribute) (context.Context, Span) {
	return ctx, &mockSpan{}
}
func (m *mockProvider) Counter(_ string) Counter                          { return nil }
func (m *mockProvider) Histogram(_ string) Histogram                      { return nil }
func (m *mockProvider) Trace(_ context.Context, _ string, _ ...Attribute) {}
func (m *mockProvider) Debug(_ context.Context, _ string, _ ...Attribute) {}
func (m *mockProvider) Info(_ context.Context, _ string, _ ...Attribute)  {}
func (m *mockProvider) Warn(_ context.Context, _ string, _ ...Attribute)  {}
func (m *mockProvider) Error(_ context.Context, _ string, _ ...Attribute) {}
