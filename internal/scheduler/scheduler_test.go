package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/guttosm/treasurypulse/internal/domain/models"
	"github.com/guttosm/treasurypulse/internal/pipeline"
	"github.com/guttosm/treasurypulse/internal/storage"
)

type stubCountRepo struct {
	storage.AuctionsRepository
	count int
}

func (r *stubCountRepo) CountAuctions(ctx context.Context) (int, error) { return r.count, nil }

type recordingRunner struct {
	runs chan string
}

func (r *recordingRunner) Run(ctx context.Context, runType string) pipeline.Result {
	r.runs <- runType
	return pipeline.Result{Status: pipeline.StatusSuccess}
}

func TestNextRun(t *testing.T) {
	cases := []struct {
		name string
		now  time.Time
		hour int
		min  int
		want time.Time
	}{
		{
			name: "later today",
			now:  time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
			hour: 18, min: 0,
			want: time.Date(2024, 3, 5, 18, 0, 0, 0, time.UTC),
		},
		{
			name: "already passed rolls to tomorrow",
			now:  time.Date(2024, 3, 5, 19, 30, 0, 0, time.UTC),
			hour: 18, min: 0,
			want: time.Date(2024, 3, 6, 18, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly at trigger rolls to tomorrow",
			now:  time.Date(2024, 3, 5, 18, 0, 0, 0, time.UTC),
			hour: 18, min: 0,
			want: time.Date(2024, 3, 6, 18, 0, 0, 0, time.UTC),
		},
		{
			name: "minute granularity",
			now:  time.Date(2024, 3, 5, 18, 14, 59, 0, time.UTC),
			hour: 18, min: 15,
			want: time.Date(2024, 3, 5, 18, 15, 0, 0, time.UTC),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := nextRun(tc.now, tc.hour, tc.min); !got.Equal(tc.want) {
				t.Fatalf("nextRun(%v)=%v, want %v", tc.now, got, tc.want)
			}
		})
	}
}

func TestStart_InitialLoadWhenEmpty(t *testing.T) {
	runner := &recordingRunner{runs: make(chan string, 1)}
	s := New(&stubCountRepo{count: 0}, runner, 18, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	select {
	case runType := <-runner.runs:
		if runType != models.RunTypeFull {
			t.Fatalf("initial load run type: %q", runType)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("initial load did not run")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("scheduler did not stop on cancellation")
	}
}

func TestStart_SkipsInitialLoadWhenPopulated(t *testing.T) {
	runner := &recordingRunner{runs: make(chan string, 1)}
	s := New(&stubCountRepo{count: 42}, runner, 18, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	select {
	case runType := <-runner.runs:
		t.Fatalf("unexpected run %q on populated store", runType)
	case <-time.After(100 * time.Millisecond):
	}

	cancel()
	<-done
}

func TestStart_FiresAtTrigger(t *testing.T) {
	runner := &recordingRunner{runs: make(chan string, 64)}
	s := New(&stubCountRepo{count: 42}, runner, 18, 0)

	// Pin "now" to just before the trigger so the timer fires immediately.
	s.now = func() time.Time {
		return time.Date(2024, 3, 5, 17, 59, 59, int(999 * time.Millisecond), time.UTC)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Start(ctx)

	select {
	case runType := <-runner.runs:
		if runType != models.RunTypeScheduled {
			t.Fatalf("scheduled run type: %q", runType)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("scheduled run did not fire")
	}
}
