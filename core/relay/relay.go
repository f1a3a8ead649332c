package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/stechy/chatrelay/internal/utils"
	"github.com/stechy/chatrelay/providers/ai"
	"github.com/stechy/chatrelay/providers/observability"
)

// readChunkSize is how much upstream data is requested per read.
const readChunkSize = 32 * 1024

// State is the relay lifecycle: Idle until the first upstream read,
// Relaying while frames flow, Closed once upstream ended or the sentinel went
// out and the rest was drained.
type State int

const (
	StateIdle State = iota
	StateRelaying
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateRelaying:
		return "relaying"
	case StateClosed:
		return "closed"
	default:
		return "idle"
	}
}

// Stats describes one relayed stream. It is only for logs and tests; the
// relay never keeps the text itself.
type Stats struct {
	State State

	// Fragments is the number of content frames written downstream.
	Fragments int
	// Malformed is the number of payloads the decoder rejected.
	Malformed int
	// Oversized is the number of lines dropped for exceeding the line limit.
	Oversized int
	// Discarded is the number of data lines read after the sentinel.
	Discarded int
	// Bytes is the number of bytes written downstream.
	Bytes int64

	SentinelSent bool

	// FinishReason and Usage are the last values reported upstream.
	FinishReason string
	Usage        *ai.Usage
}

// Relay converts one provider's stream dialect into downstream frames.
// A Relay holds no per-stream state and may be shared.
type Relay struct {
	decoder     ai.StreamDecoder
	maxLineSize int
}

// Option configures a Relay.
type Option func(*Relay)

// WithMaxLineSize caps a single upstream line; longer lines are dropped.
func WithMaxLineSize(size int) Option {
	return func(r *Relay) {
		r.maxLineSize = size
	}
}

// New returns a Relay decoding payloads with decoder.
func New(decoder ai.StreamDecoder, opts ...Option) *Relay {
	relay := &Relay{decoder: decoder, maxLineSize: utils.DefaultMaxLineSize}
	for _, opt := range opts {
		opt(relay)
	}
	return relay
}

// Decode reads src incrementally and yields downstream frames in upstream
// order. At most one FrameDone is yielded; data lines after it are read and
// counted in stats.Discarded but not yielded. A read error is yielded once
// and ends the sequence. A clean EOF ends it without an error and without a
// synthetic sentinel.
//
// stats may be nil.
func (r *Relay) Decode(ctx context.Context, src io.Reader, stats *Stats) iter.Seq2[Frame, error] {
	if stats == nil {
		stats = &Stats{}
	}

	return func(yield func(Frame, error) bool) {
		observer := observability.ObserverFromContext(ctx)
		splitter := utils.NewLineSplitter(r.maxLineSize)
		chunk := make([]byte, readChunkSize)
		sentinelSeen := false

		// handle returns false when the consumer stopped.
		handle := func(line string) bool {
			payload, ok := strings.CutPrefix(line, dataPrefix)
			if !ok {
				return true
			}
			payload = strings.TrimSpace(payload)
			if payload == "" {
				return true
			}

			if sentinelSeen {
				stats.Discarded++
				return true
			}
			if payload == doneSentinel {
				sentinelSeen = true
				return yield(Frame{Kind: FrameDone}, nil)
			}

			decoded, err := r.decoder.DecodeChunk([]byte(payload))
			if err != nil {
				stats.Malformed++
				observer.Debug(ctx, "Dropping malformed upstream payload",
					observability.Error(err),
					observability.String("payload", utils.TruncateString(payload, 200)),
				)
				return true
			}
			if decoded.FinishReason != "" {
				stats.FinishReason = decoded.FinishReason
			}
			if decoded.Usage != nil {
				stats.Usage = decoded.Usage
			}
			if decoded.Text == "" {
				return true
			}
			return yield(Frame{Kind: FrameContent, Content: decoded.Text}, nil)
		}

		defer func() {
			stats.Oversized = splitter.Dropped()
		}()

		for {
			n, readErr := src.Read(chunk)
			if n > 0 {
				if stats.State == StateIdle {
					stats.State = StateRelaying
				}
				for _, line := range splitter.Feed(chunk[:n]) {
					if !handle(line) {
						return
					}
				}
			}

			if errors.Is(readErr, io.EOF) {
				if tail, ok := splitter.Flush(); ok {
					handle(tail)
				}
				return
			}
			if readErr != nil {
				yield(Frame{}, readErr)
				return
			}
		}
	}
}

// Pipe relays src to w until upstream ends, writing one SSE record per frame
// and flushing after each when w supports it (http.Flusher does). If the
// upstream ends cleanly without a sentinel, "[DONE]" is written last.
//
// When ctx is cancelled, src is closed if it is an io.Closer so a blocked
// read returns, and the stream ends without a sentinel. Read and write
// failures likewise end it without one; the returned error says which side
// failed.
func (r *Relay) Pipe(ctx context.Context, w io.Writer, src io.Reader) (Stats, error) {
	var stats Stats

	if closer, ok := src.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() {
			utils.CloseWithLog(closer)
		})
		defer stop()
	}

	span := observability.SpanFromContext(ctx)
	if span != nil {
		span.AddEvent(observability.EventRelayStarted)
	}

	flusher, _ := w.(interface{ Flush() })
	encoder := newFrameEncoder()

	write := func(frame Frame) error {
		record, err := encoder.encode(frame)
		if err != nil {
			return fmt.Errorf("encode frame: %w", err)
		}
		n, err := w.Write(record)
		stats.Bytes += int64(n)
		if err != nil {
			return fmt.Errorf("write downstream: %w", err)
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	}

	for frame, err := range r.Decode(ctx, src, &stats) {
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return r.finish(ctx, stats, ctxErr)
			}
			return r.finish(ctx, stats, fmt.Errorf("read upstream: %w", err))
		}

		if err := write(frame); err != nil {
			return r.finish(ctx, stats, err)
		}

		switch frame.Kind {
		case FrameDone:
			stats.SentinelSent = true
			if span != nil {
				span.AddEvent(observability.EventRelaySentinel)
			}
		case FrameContent:
			stats.Fragments++
		}
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return r.finish(ctx, stats, ctxErr)
	}
	if !stats.SentinelSent {
		if err := write(Frame{Kind: FrameDone}); err != nil {
			return r.finish(ctx, stats, err)
		}
		stats.SentinelSent = true
	}
	return r.finish(ctx, stats, nil)
}

// finish records metrics and the closing span event for a stream.
func (r *Relay) finish(ctx context.Context, stats Stats, err error) (Stats, error) {
	stats.State = StateClosed

	observer := observability.ObserverFromContext(ctx)
	observer.Counter(observability.MetricRelayFragments).Add(ctx, int64(stats.Fragments))
	if stats.Malformed > 0 {
		observer.Counter(observability.MetricRelayMalformed).Add(ctx, int64(stats.Malformed))
	}

	if span := observability.SpanFromContext(ctx); span != nil {
		attrs := []observability.Attribute{
			observability.Int(observability.AttrRelayFragments, stats.Fragments),
			observability.Int(observability.AttrRelayMalformed, stats.Malformed),
			observability.Int(observability.AttrRelayDiscarded, stats.Discarded),
			observability.Int64(observability.AttrRelayBytes, stats.Bytes),
			observability.Bool(observability.AttrRelaySentinel, stats.SentinelSent),
		}
		if stats.FinishReason != "" {
			attrs = append(attrs, observability.String(observability.AttrLLMFinishReason, stats.FinishReason))
		}
		if err != nil {
			attrs = append(attrs, observability.Error(err))
		}
		span.AddEvent(observability.EventRelayFinished, attrs...)
	}
	return stats, err
}
