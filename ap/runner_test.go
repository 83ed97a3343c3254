package ap

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tomiamao/apmlme/mlme"
)

func TestRunner(t *testing.T) {
	bt := newBssTest(t)
	r := NewRunner(bt.bss, 8, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errC := make(chan error, 1)
	go func() { errC <- r.Run(ctx) }()

	if err := r.DeliverMessage(ctx, startRequest(false)); err != nil {
		t.Fatalf("failed to deliver start request: %v", err)
	}

	// Do runs after everything queued before it.
	started := make(chan bool, 1)
	if err := r.Do(ctx, func(b *Bss) { started <- b.Started() }); err != nil {
		t.Fatalf("failed to queue func: %v", err)
	}
	if !<-started {
		t.Fatal("bss not started")
	}

	cancel()
	if err := <-errC; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
	if bt.bss.Started() {
		t.Fatal("runner did not stop the bss")
	}

	want := []mlme.Message{mlme.StartConfirm{ResultCode: mlme.StartSuccess}}
	if diff := cmp.Diff(want, bt.dev.svc); diff != "" {
		t.Fatalf("unexpected service messages (-want +got):\n%s", diff)
	}

	if err := r.DeliverMessage(context.Background(), mlme.StopRequest{}); !errors.Is(err, ErrRunnerClosed) {
		t.Fatalf("expected ErrRunnerClosed, got %v", err)
	}
}

func TestRunnerDeliverCanceled(t *testing.T) {
	bt := newBssTest(t)
	r := NewRunner(bt.bss, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Nothing is running, so delivery waits on ctx.
	if err := r.DeliverMessage(ctx, startRequest(false)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}

func TestRunnerRunsQueuedEventsOnShutdown(t *testing.T) {
	bt := newBssTest(t)
	r := NewRunner(bt.bss, 4, nil)

	// Queued before Run starts, so Run may see cancellation first.
	if err := r.DeliverMessage(context.Background(), startRequest(false)); err != nil {
		t.Fatalf("failed to deliver start request: %v", err)
	}
	var ran bool
	if err := r.Do(context.Background(), func(*Bss) { ran = true }); err != nil {
		t.Fatalf("failed to queue func: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}

	if !ran {
		t.Fatal("accepted event did not run")
	}
	want := []mlme.Message{mlme.StartConfirm{ResultCode: mlme.StartSuccess}}
	if diff := cmp.Diff(want, bt.dev.svc); diff != "" {
		t.Fatalf("unexpected service messages (-want +got):\n%s", diff)
	}
	if bt.bss.Started() {
		t.Fatal("runner did not stop the bss")
	}

	if err := r.Do(context.Background(), func(*Bss) {}); !errors.Is(err, ErrRunnerClosed) {
		t.Fatalf("expected ErrRunnerClosed, got %v", err)
	}
}
