package transport

import (
	"sync"
	"time"

	"inkwell/internal/delta"
	"inkwell/internal/ops"
	"inkwell/internal/telemetry"
	"inkwell/internal/telemetry/metrics"
)

const (
	// DefaultFlushInterval is the time window after the first buffered op
	// before a batch flushes automatically.
	DefaultFlushInterval = 300 * time.Millisecond

	// DefaultMaxBatchSize is the hard upper bound on pending operations
	// before a synchronous flush is forced.
	DefaultMaxBatchSize = 50
)

// pendingMeta is captured from the first delta buffered in a batch: the
// base version and client id any flushed batch carries forward.
type pendingMeta struct {
	baseVersion int
	clientID    string
	captured    bool
}

// BatchingStats reports how effective a BatchedTransport's coalescing has
// been.
type BatchingStats struct {
	MessagesReceived int64
	MessagesSent     int64
	BatchesSent      int64
	BytesSaved       int64
	ReductionPercent float64
}

// BatchedTransport wraps any Transport and coalesces outbound Send calls
// within flushInterval into a single Delta, per §4.6, flushing synchronously
// once maxBatchSize operations are pending; a flushed batch can exceed
// maxBatchSize by the operations of the delta that reached it. Received
// deltas and cursor traffic are passed straight through — only outbound
// document deltas are batched.
type BatchedTransport struct {
	underlying Transport
	clock      Clock
	scheduler  Scheduler

	flushInterval time.Duration
	maxBatchSize  int

	mu         sync.Mutex
	pendingOps []ops.Operation
	meta       pendingMeta
	timer      Timer
	stats      BatchingStats
}

// messageOverheadBytes approximates the fixed per-message wire overhead
// (envelope framing, headers) a coalesced operation avoids by riding along
// in a larger batch instead of its own round trip.
const messageOverheadBytes = 96

// Option configures a BatchedTransport at construction.
type Option func(*BatchedTransport)

// WithFlushInterval overrides the default 300ms flush window.
func WithFlushInterval(d time.Duration) Option {
	return func(bt *BatchedTransport) { bt.flushInterval = d }
}

// WithMaxBatchSize overrides the default 50-operation hard cap.
func WithMaxBatchSize(n int) Option {
	return func(bt *BatchedTransport) { bt.maxBatchSize = n }
}

// WithClock injects a Clock, for deterministic tests.
func WithClock(c Clock) Option {
	return func(bt *BatchedTransport) { bt.clock = c }
}

// WithScheduler injects a Scheduler, for deterministic tests.
func WithScheduler(s Scheduler) Option {
	return func(bt *BatchedTransport) { bt.scheduler = s }
}

// NewBatchedTransport wraps underlying with the default 300ms/50-op batch
// policy; apply Option values to override.
func NewBatchedTransport(underlying Transport, opts ...Option) *BatchedTransport {
	bt := &BatchedTransport{
		underlying:    underlying,
		clock:         SystemClock{},
		scheduler:     SystemScheduler{},
		flushInterval: DefaultFlushInterval,
		maxBatchSize:  DefaultMaxBatchSize,
	}
	for _, opt := range opts {
		opt(bt)
	}
	return bt
}

// Send buffers d's operations. The first delta in a batch donates its
// baseVersion/clientId to the eventual flushed Delta. A batch at
// maxBatchSize flushes synchronously; otherwise a flush timer is armed if
// one isn't already running.
func (bt *BatchedTransport) Send(d delta.Delta) error {
	bt.mu.Lock()
	bt.stats.MessagesReceived++
	if !bt.meta.captured {
		bt.meta = pendingMeta{baseVersion: d.BaseVersion, clientID: d.ClientID, captured: true}
	}
	bt.pendingOps = append(bt.pendingOps, d.Operations...)
	shouldFlushNow := len(bt.pendingOps) >= bt.maxBatchSize
	if !shouldFlushNow && bt.timer == nil {
		bt.timer = bt.scheduler.AfterFunc(bt.flushInterval, func() {
			if err := bt.Flush(); err != nil {
				telemetry.S().Warnw("batched transport: timer flush failed", "error", err)
			}
		})
	}
	bt.mu.Unlock()

	if shouldFlushNow {
		return bt.Flush()
	}
	return nil
}

// Flush cancels any armed timer and, if anything is pending, emits one
// Delta to the underlying transport carrying the accumulated operations.
func (bt *BatchedTransport) Flush() error {
	bt.mu.Lock()
	if bt.timer != nil {
		bt.timer.Stop()
		bt.timer = nil
	}
	if len(bt.pendingOps) == 0 {
		bt.mu.Unlock()
		return nil
	}
	operations := bt.pendingOps
	meta := bt.meta
	bt.pendingOps = nil
	bt.meta = pendingMeta{}

	if saved := len(operations) - 1; saved > 0 {
		bt.stats.BytesSaved += int64(saved) * messageOverheadBytes
	}
	bt.stats.MessagesSent++
	bt.stats.BatchesSent++
	if bt.stats.MessagesReceived > 0 {
		bt.stats.ReductionPercent = 100 * (1 - float64(bt.stats.MessagesSent)/float64(bt.stats.MessagesReceived))
	}
	snapshot := bt.stats
	bt.mu.Unlock()
	metrics.Get().RecordBatchFlush(int64(len(operations)-1)*messageOverheadBytes, snapshot.ReductionPercent)

	out := delta.Delta{
		Operations:    operations,
		BaseVersion:   meta.baseVersion,
		ResultVersion: meta.baseVersion + 1,
		ClientID:      meta.clientID,
		Timestamp:     bt.clock.Now(),
	}
	return bt.underlying.Send(out)
}

// Stats reports the running batching effectiveness counters.
func (bt *BatchedTransport) Stats() BatchingStats {
	bt.mu.Lock()
	defer bt.mu.Unlock()
	return bt.stats
}

// OnReceive passes through unbatched — incoming deltas are never coalesced.
func (bt *BatchedTransport) OnReceive(cb func(delta.Delta)) { bt.underlying.OnReceive(cb) }

// SendCursor passes through unbatched.
func (bt *BatchedTransport) SendCursor(c CursorInfo) error { return bt.underlying.SendCursor(c) }

// OnCursorUpdate passes through unbatched.
func (bt *BatchedTransport) OnCursorUpdate(cb func(CursorInfo)) { bt.underlying.OnCursorUpdate(cb) }

// Connect delegates to the underlying transport.
func (bt *BatchedTransport) Connect() error { return bt.underlying.Connect() }

// Disconnect flushes any pending batch before delegating.
func (bt *BatchedTransport) Disconnect() error {
	if err := bt.Flush(); err != nil {
		telemetry.S().Warnw("batched transport: flush on disconnect failed", "error", err)
	}
	return bt.underlying.Disconnect()
}
