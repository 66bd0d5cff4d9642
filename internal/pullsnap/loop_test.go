package pullsnap_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"pullsnap-go/internal/pullsnap"
	"pullsnap-go/internal/testutil"
)

func TestService_Sweep(t *testing.T) {
	t.Run("a failing target does not block the ones behind it", func(t *testing.T) {
		t1 := testutil.MakeTarget(t, "t1")
		t2 := testutil.MakeTarget(t, "t2")

		// First target's transfer fails hard, second succeeds.
		xfer := testutil.NewScriptedTransfer(
			pullsnap.TransferResult{ExitCode: 1},
			pullsnap.TransferResult{ExitCode: 0},
		)
		svc := newTestService(xfer, testutil.FixedClock())

		if err := svc.Sweep(context.Background(), []*pullsnap.Target{t1, t2}); err != nil {
			t.Fatalf("Sweep() error = %v", err)
		}

		if !t1.NextDue.IsZero() {
			t.Error("failed target must stay due")
		}
		if t2.NextDue.IsZero() {
			t.Error("second target should have synced despite the first failing")
		}
	})

	t.Run("disk full stops the sweep", func(t *testing.T) {
		t1 := testutil.MakeTarget(t, "t1")
		t2 := testutil.MakeTarget(t, "t2")

		xfer := testutil.NewScriptedTransfer()
		svc := pullsnap.NewService(
			xfer,
			&testutil.StubSizer{Size: 1024},
			testutil.NewStubDiskFree(0),
			testutil.NewMemJournal(),
			pullsnap.NewNopLogger(),
			testutil.FixedClock(),
			testRemote,
			false,
		)

		err := svc.Sweep(context.Background(), []*pullsnap.Target{t1, t2})
		if !errors.Is(err, pullsnap.ErrDiskFull) {
			t.Fatalf("Sweep() error = %v, want ErrDiskFull", err)
		}
		if xfer.Calls() != 0 {
			t.Errorf("transfer calls = %d, want 0", xfer.Calls())
		}
		if !t2.NextDue.IsZero() {
			t.Error("targets after the fatal error must not have been processed")
		}
	})
}

func TestService_Run(t *testing.T) {
	t.Run("stops on context cancellation", func(t *testing.T) {
		target := testutil.MakeTarget(t, "t1")
		svc := newTestService(testutil.NewScriptedTransfer(), testutil.FixedClock())

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- svc.Run(ctx, []*pullsnap.Target{target}, time.Hour)
		}()

		cancel()
		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Run() error = %v, want context.Canceled", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("Run() did not stop after cancellation")
		}
	})

	t.Run("propagates disk full out of the loop", func(t *testing.T) {
		target := testutil.MakeTarget(t, "t1")
		svc := pullsnap.NewService(
			testutil.NewScriptedTransfer(),
			&testutil.StubSizer{Size: 1024},
			testutil.NewStubDiskFree(0),
			testutil.NewMemJournal(),
			pullsnap.NewNopLogger(),
			testutil.FixedClock(),
			testRemote,
			false,
		)

		err := svc.Run(context.Background(), []*pullsnap.Target{target}, time.Hour)
		if !errors.Is(err, pullsnap.ErrDiskFull) {
			t.Errorf("Run() error = %v, want ErrDiskFull", err)
		}
	})
}
