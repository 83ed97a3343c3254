package ap

import (
	"context"
	"errors"
	"sync"

	"github.com/tomiamao/apmlme/frame"
	"github.com/tomiamao/apmlme/mlme"
	"go.uber.org/zap"
)

// ErrRunnerClosed is returned when delivering to a Runner that has exited.
var ErrRunnerClosed = errors.New("ap: runner closed")

// A Runner serializes frames and SME messages from any number of goroutines
// into a single Bss.
type Runner struct {
	bss      *Bss
	log      *zap.Logger
	events   chan func(*Bss)
	stopping chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewRunner creates a Runner for b with a backlog of queueLen events.
func NewRunner(b *Bss, queueLen int, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		bss:      b,
		log:      log,
		events:   make(chan func(*Bss), queueLen),
		stopping: make(chan struct{}),
	}
}

// Run processes events until ctx is canceled, then stops the BSS. Events
// accepted before Run returns are processed before the BSS stops. Run must
// be called at most once.
func (r *Runner) Run(ctx context.Context) error {
	r.log.Debug("runner started")

	for {
		select {
		case <-ctx.Done():
			r.shutdown()
			r.log.Debug("runner exiting", zap.Error(ctx.Err()))
			return ctx.Err()
		case fn := <-r.events:
			fn(r.bss)
		}
	}
}

// shutdown rejects new events, runs the ones already queued and stops the
// BSS.
func (r *Runner) shutdown() {
	close(r.stopping)
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	for {
		select {
		case fn := <-r.events:
			fn(r.bss)
		default:
			r.bss.Stop()
			return
		}
	}
}

// DeliverFrame queues p for HandleAnyFrame.
func (r *Runner) DeliverFrame(ctx context.Context, p frame.Packet) error {
	return r.Do(ctx, func(b *Bss) { b.HandleAnyFrame(p) })
}

// DeliverMessage queues m for HandleMlmeMsg.
func (r *Runner) DeliverMessage(ctx context.Context, m mlme.Message) error {
	return r.Do(ctx, func(b *Bss) { b.HandleMlmeMsg(m) })
}

// Do queues fn to run on the goroutine that owns the Bss. It does not wait
// for fn to run, but a nil error means fn will run.
func (r *Runner) Do(ctx context.Context, fn func(*Bss)) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrRunnerClosed
	}

	select {
	case r.events <- fn:
		return nil
	case <-r.stopping:
		return ErrRunnerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}
