package slogobs

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/stechy/chatrelay/providers/observability"
)

// Observer implements observability.Provider with a slog.Logger. Metrics are
// kept in memory and every update is also logged at DEBUG.
type Observer struct {
	logger  *slog.Logger
	metrics *metricsStore
	closer  io.Closer
}

var _ observability.Provider = (*Observer)(nil)

// New creates an observer. Without options it reads CHATRELAY_LOG_FORMAT and
// CHATRELAY_LOG_LEVEL and writes compact INFO logs to stdout.
//
//	observer := slogobs.New(
//	    slogobs.WithFormat(slogobs.FormatJSON),
//	    slogobs.WithFile("/var/log/chatrelay/chatrelay.log"),
//	)
//	defer observer.Close()
func New(opts ...Option) *Observer {
	cfg := applyOptions(opts...)

	logger := cfg.logger
	if logger == nil {
		logger = slog.New(NewHandler(&HandlerOptions{
			Format: cfg.format,
			Level:  cfg.level,
			Output: cfg.output,
			Colors: cfg.colors,
		}))
	}

	return &Observer{
		logger:  logger,
		metrics: newMetricsStore(),
		closer:  cfg.closer,
	}
}

// Logger exposes the underlying logger, e.g. for slog.SetDefault.
func (o *Observer) Logger() *slog.Logger {
	return o.logger
}

// Close releases the log file opened by WithFile. It is a no-op otherwise.
func (o *Observer) Close() error {
	if o.closer == nil {
		return nil
	}
	return o.closer.Close()
}

// --- TRACING ---

// StartSpan logs the span start at DEBUG and returns ctx carrying the span,
// so helpers further down can add events through SpanFromContext.
func (o *Observer) StartSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	span := &slogSpan{
		name:      name,
		startTime: time.Now(),
		logger:    o.logger,
		attrs:     append([]observability.Attribute(nil), attrs...),
	}

	logAttrs := []slog.Attr{
		slog.String("span", name),
		slog.String("event", "span.start"),
	}
	o.logger.LogAttrs(ctx, slog.LevelDebug, "Span started", append(logAttrs, toSlog(attrs)...)...)

	return observability.ContextWithSpan(ctx, span), span
}

type slogSpan struct {
	name      string
	startTime time.Time
	logger    *slog.Logger
	mu        sync.Mutex
	attrs     []observability.Attribute
	status    observability.StatusCode
	ended     bool
}

// End logs the span duration and accumulated attributes. Only the first call
// has an effect. Spans that ended in error are logged at WARN.
func (s *slogSpan) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.ended = true

	level := slog.LevelDebug
	if s.status == observability.StatusError {
		level = slog.LevelWarn
	}

	logAttrs := []slog.Attr{
		slog.String("span", s.name),
		slog.String("event", "span.end"),
		slog.Duration(observability.AttrDuration, time.Since(s.startTime)),
	}
	s.logger.LogAttrs(context.Background(), level, "Span ended", append(logAttrs, toSlog(s.attrs)...)...)
}

func (s *slogSpan) SetAttributes(attrs ...observability.Attribute) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs = append(s.attrs, attrs...)
}

func (s *slogSpan) SetStatus(code observability.StatusCode, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = code
	s.attrs = append(s.attrs, observability.String(observability.AttrStatus, code.String()))
	if description != "" {
		s.attrs = append(s.attrs, observability.String(observability.AttrStatusDescription, description))
	}
}

// RecordError attaches err to the span and logs it at ERROR.
func (s *slogSpan) RecordError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attrs = append(s.attrs, observability.Error(err))
	s.logger.LogAttrs(context.Background(), slog.LevelError, "Span error",
		slog.String("span", s.name),
		slog.String("event", "error"),
		slog.String(observability.AttrError, err.Error()),
	)
}

func (s *slogSpan) AddEvent(name string, attrs ...observability.Attribute) {
	logAttrs := []slog.Attr{
		slog.String("span", s.name),
		slog.String("event", name),
	}
	s.logger.LogAttrs(context.Background(), slog.LevelDebug, "Span event", append(logAttrs, toSlog(attrs)...)...)
}

// --- METRICS ---

// Counter returns the counter registered under name, creating it on first use.
func (o *Observer) Counter(name string) observability.Counter {
	return o.metrics.counter(name, o.logger)
}

// Histogram returns the histogram registered under name, creating it on first use.
func (o *Observer) Histogram(name string) observability.Histogram {
	return o.metrics.histogram(name, o.logger)
}

// CounterValue reports the running total of the named counter.
func (o *Observer) CounterValue(name string) int64 {
	return o.metrics.counter(name, o.logger).load()
}

// HistogramSummary reports how many values the named histogram recorded and
// their sum.
func (o *Observer) HistogramSummary(name string) (count int64, sum float64) {
	return o.metrics.histogram(name, o.logger).summary()
}

type metricsStore struct {
	mu         sync.RWMutex
	counters   map[string]*slogCounter
	histograms map[string]*slogHistogram
}

func newMetricsStore() *metricsStore {
	return &metricsStore{
		counters:   make(map[string]*slogCounter),
		histograms: make(map[string]*slogHistogram),
	}
}

func (m *metricsStore) counter(name string, logger *slog.Logger) *slogCounter {
	m.mu.RLock()
	counter, exists := m.counters[name]
	m.mu.RUnlock()
	if exists {
		return counter
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if counter, exists := m.counters[name]; exists {
		return counter
	}
	counter = &slogCounter{name: name, logger: logger}
	m.counters[name] = counter
	return counter
}

func (m *metricsStore) histogram(name string, logger *slog.Logger) *slogHistogram {
	m.mu.RLock()
	histogram, exists := m.histograms[name]
	m.mu.RUnlock()
	if exists {
		return histogram
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if histogram, exists := m.histograms[name]; exists {
		return histogram
	}
	histogram = &slogHistogram{name: name, logger: logger}
	m.histograms[name] = histogram
	return histogram
}

type slogCounter struct {
	name   string
	logger *slog.Logger
	mu     sync.Mutex
	value  int64
}

func (c *slogCounter) Add(ctx context.Context, value int64, attrs ...observability.Attribute) {
	c.mu.Lock()
	c.value += value
	current := c.value
	c.mu.Unlock()

	logAttrs := []slog.Attr{
		slog.String("metric", c.name),
		slog.String("type", "counter"),
		slog.Int64("value", current),
		slog.Int64("delta", value),
	}
	c.logger.LogAttrs(ctx, slog.LevelDebug, "Counter", append(logAttrs, toSlog(attrs)...)...)
}

func (c *slogCounter) load() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

type slogHistogram struct {
	name   string
	logger *slog.Logger
	mu     sync.Mutex
	count  int64
	sum    float64
}

func (h *slogHistogram) Record(ctx context.Context, value float64, attrs ...observability.Attribute) {
	h.mu.Lock()
	h.count++
	h.sum += value
	h.mu.Unlock()

	logAttrs := []slog.Attr{
		slog.String("metric", h.name),
		slog.String("type", "histogram"),
		slog.Float64("value", value),
	}
	h.logger.LogAttrs(ctx, slog.LevelDebug, "Histogram", append(logAttrs, toSlog(attrs)...)...)
}

func (h *slogHistogram) summary() (int64, float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count, h.sum
}

// --- LOGGING ---

// Trace logs below DEBUG; it only shows with CHATRELAY_LOG_LEVEL=trace.
func (o *Observer) Trace(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, LevelTrace, msg, toSlog(attrs)...)
}

func (o *Observer) Debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, slog.LevelDebug, msg, toSlog(attrs)...)
}

func (o *Observer) Info(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, slog.LevelInfo, msg, toSlog(attrs)...)
}

func (o *Observer) Warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, slog.LevelWarn, msg, toSlog(attrs)...)
}

func (o *Observer) Error(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, slog.LevelError, msg, toSlog(attrs)...)
}

func toSlog(attrs []observability.Attribute) []slog.Attr {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		out = append(out, slog.Any(attr.Key, attr.Value))
	}
	return out
}
