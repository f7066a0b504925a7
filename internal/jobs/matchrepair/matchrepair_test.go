package matchrepair

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/neopath7/pethoria-matchpage-server/internal/domain/errs"
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/model"
	redrepo "github.com/neopath7/pethoria-matchpage-server/internal/repo/redis"
)

func TestRunAcksHealedAndKeepsTransientFailures(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	queue := redrepo.NewRepairQueue(client)

	ctx := context.Background()
	ok := model.MatchPair{ProfileID: "bob", CounterpartID: "alice"}
	flaky := model.MatchPair{ProfileID: "carol", CounterpartID: "dave"}
	broken := model.MatchPair{ProfileID: "eve", CounterpartID: "eve"}
	for _, pair := range []model.MatchPair{ok, flaky, broken} {
		if err := queue.Enqueue(ctx, pair); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	reconciler := &fakeReconciler{errors: map[model.MatchPair]error{
		flaky:  errs.Unavailable(errors.New("store down")),
		broken: errs.Invalid("pair", "invalid match pair"),
	}}
	gauge := &fakeGauge{}
	job := New(queue, reconciler, 10, time.Minute, nil)
	job.AttachBacklogGauge(gauge)

	if err := job.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(reconciler.seen) != 3 {
		t.Fatalf("expected three reconcile calls, got %d", len(reconciler.seen))
	}
	left, err := queue.Peek(ctx, 10)
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if len(left) != 1 || left[0] != flaky {
		t.Fatalf("expected only the transient failure to remain, got %+v", left)
	}
	if gauge.value != 1 {
		t.Fatalf("expected backlog gauge 1, got %d", gauge.value)
	}
}

func TestRunRotatesStuckPairsBehindNewerOnes(t *testing.T) {
	stuck := model.MatchPair{ProfileID: "carol", CounterpartID: "dave"}
	fresh := model.MatchPair{ProfileID: "bob", CounterpartID: "alice"}
	queue := &fifoQueue{pairs: []model.MatchPair{stuck, fresh}}
	reconciler := &fakeReconciler{errors: map[model.MatchPair]error{
		stuck: errs.Unavailable(errors.New("store down")),
	}}
	job := New(queue, reconciler, 1, time.Minute, nil)

	for i := 0; i < 2; i++ {
		if err := job.Run(context.Background()); err != nil {
			t.Fatalf("run #%d: %v", i+1, err)
		}
	}

	if len(reconciler.seen) != 2 || reconciler.seen[1] != fresh {
		t.Fatalf("expected the newer pair to be reached on the second cycle, got %+v", reconciler.seen)
	}
	if len(queue.pairs) != 1 || queue.pairs[0] != stuck {
		t.Fatalf("expected only the stuck pair to remain, got %+v", queue.pairs)
	}
}

func TestRunWithoutQueueIsNoop(t *testing.T) {
	job := New(nil, nil, 0, 0, nil)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	queue := &staticQueue{}
	job := New(queue, &fakeReconciler{}, 1, time.Millisecond, nil)

	done := make(chan struct{})
	go func() {
		job.Start(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("job did not stop after cancel")
	}
	if queue.peeks == 0 {
		t.Fatalf("expected at least one cycle")
	}
}

type fakeReconciler struct {
	errors map[model.MatchPair]error
	seen   []model.MatchPair
}

func (f *fakeReconciler) Reconcile(_ context.Context, pair model.MatchPair) error {
	f.seen = append(f.seen, pair)
	return f.errors[pair]
}

type fakeGauge struct {
	value int64
}

func (f *fakeGauge) SetRepairBacklog(n int64) {
	f.value = n
}

type staticQueue struct {
	peeks int
}

func (q *staticQueue) Peek(context.Context, int) ([]model.MatchPair, error) {
	q.peeks++
	return nil, nil
}

func (q *staticQueue) Ack(context.Context, model.MatchPair) error { return nil }

func (q *staticQueue) Defer(context.Context, model.MatchPair) error { return nil }

func (q *staticQueue) Len(context.Context) (int64, error) { return 0, nil }

// fifoQueue mirrors the ordering of the Redis queue: Defer moves a pair to the back.
type fifoQueue struct {
	pairs []model.MatchPair
}

func (q *fifoQueue) Peek(_ context.Context, limit int) ([]model.MatchPair, error) {
	if limit > len(q.pairs) {
		limit = len(q.pairs)
	}
	return append([]model.MatchPair(nil), q.pairs[:limit]...), nil
}

func (q *fifoQueue) Ack(_ context.Context, pair model.MatchPair) error {
	q.remove(pair)
	return nil
}

func (q *fifoQueue) Defer(_ context.Context, pair model.MatchPair) error {
	if q.remove(pair) {
		q.pairs = append(q.pairs, pair)
	}
	return nil
}

func (q *fifoQueue) Len(context.Context) (int64, error) { return int64(len(q.pairs)), nil }

func (q *fifoQueue) remove(pair model.MatchPair) bool {
	for i, p := range q.pairs {
		if p == pair {
			q.pairs = append(q.pairs[:i], q.pairs[i+1:]...)
			return true
		}
	}
	return false
}
