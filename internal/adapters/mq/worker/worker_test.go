package worker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	queue "github.com/minseo-lab/guildmain/internal/adapters/mq/queue"
	worker "github.com/minseo-lab/guildmain/internal/adapters/mq/worker"
	"github.com/minseo-lab/guildmain/internal/domain/model"
	"github.com/minseo-lab/guildmain/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// mockQueue feeds tasks to workers over a plain channel.
type mockQueue struct {
	taskChan chan worker.Task
}

func newMockQueue() *mockQueue {
	return &mockQueue{taskChan: make(chan worker.Task, 16)}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan worker.Task {
	return mq.taskChan
}

func (mq *mockQueue) addTask(t worker.Task) {
	mq.taskChan <- t
}

func (mq *mockQueue) Close() error {
	close(mq.taskChan)
	return nil
}

// mockResolver produces a fixed-shape result per member.
type mockResolver struct {
	mu    sync.Mutex
	calls []string
	delay time.Duration
}

func (mr *mockResolver) ResolveTask(ctx context.Context, t worker.Task) model.MemberResult {
	mr.mu.Lock()
	mr.calls = append(mr.calls, t.Member)
	mr.mu.Unlock()
	if mr.delay > 0 {
		time.Sleep(mr.delay)
	}
	return model.MemberResult{Member: t.Member, CharacterLevel: 100 + t.Seq}
}

func (mr *mockResolver) callCount() int {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	return len(mr.calls)
}

// mockSink collects delivered results.
type mockSink struct {
	mu      sync.Mutex
	results []model.MemberResult
	tasks   []worker.Task
}

func (ms *mockSink) Deliver(ctx context.Context, t worker.Task, res model.MemberResult) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.tasks = append(ms.tasks, t)
	ms.results = append(ms.results, res)
}

func (ms *mockSink) delivered() []model.MemberResult {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	out := make([]model.MemberResult, len(ms.results))
	copy(out, ms.results)
	return out
}

func waitFor(cond func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestPacedWorker_ProcessesTasks(t *testing.T) {
	convey.Convey("Given a paced worker over a queue", t, func() {
		mq := newMockQueue()
		resolver := &mockResolver{}
		sink := &mockSink{}
		w := worker.NewPacedWorker(mq, resolver, sink, worker.WithPacing(0))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When tasks arrive", func() {
			mq.addTask(worker.Task{RunID: "run-1", Seq: 0, Member: "하나"})
			mq.addTask(worker.Task{RunID: "run-1", Seq: 1, Member: "둘"})

			ok := waitFor(func() bool { return len(sink.delivered()) == 2 }, 2*time.Second)

			convey.Convey("Then every task is resolved and delivered in order", func() {
				convey.So(ok, convey.ShouldBeTrue)
				got := sink.delivered()
				convey.So(got[0].Member, convey.ShouldEqual, "하나")
				convey.So(got[1].Member, convey.ShouldEqual, "둘")
				convey.So(resolver.callCount(), convey.ShouldEqual, 2)
			})
		})
	})
}

func TestPacedWorker_PacingBetweenTasks(t *testing.T) {
	convey.Convey("Given a worker with a 30ms pacing delay", t, func() {
		mq := newMockQueue()
		resolver := &mockResolver{}
		sink := &mockSink{}
		w := worker.NewPacedWorker(mq, resolver, sink, worker.WithPacing(30*time.Millisecond))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When three tasks are processed back to back", func() {
			start := time.Now()
			for i := 0; i < 3; i++ {
				mq.addTask(worker.Task{RunID: "run-1", Seq: i, Member: "멤버"})
			}

			ok := waitFor(func() bool { return len(sink.delivered()) == 3 }, 2*time.Second)
			elapsed := time.Since(start)

			convey.Convey("Then the pacing delay separates every task", func() {
				convey.So(ok, convey.ShouldBeTrue)
				// Two full pacing intervals must have passed before the
				// third delivery.
				convey.So(elapsed, convey.ShouldBeGreaterThanOrEqualTo, 60*time.Millisecond)
			})
		})
	})
}

func TestPacedWorker_Shutdown(t *testing.T) {
	convey.Convey("Given a running worker", t, func() {
		mq := newMockQueue()
		w := worker.NewPacedWorker(mq, &mockResolver{}, &mockSink{}, worker.WithPacing(0))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When shutting it down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer shutdownCancel()
			err := w.Shutdown(shutdownCtx)

			convey.Convey("Then it stops cleanly", func() {
				convey.So(err, convey.ShouldBeNil)
			})

			convey.Convey("And a second shutdown is safe", func() {
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a worker whose queue closes", t, func() {
		mq := newMockQueue()
		sink := &mockSink{}
		w := worker.NewPacedWorker(mq, &mockResolver{}, sink, worker.WithPacing(0))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When the queue drains and closes", func() {
			mq.addTask(worker.Task{RunID: "run-1", Seq: 0, Member: "하나"})
			_ = mq.Close()

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer shutdownCancel()
			err := w.Shutdown(shutdownCtx)

			convey.Convey("Then the worker exits on its own", func() {
				convey.So(err, convey.ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool over an in-memory queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		resolver := &mockResolver{}
		sink := &mockSink{}
		pool := worker.NewPool(2, q, resolver, sink, worker.WithPacing(0))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		convey.Convey("When tasks are enqueued", func() {
			for i := 0; i < 4; i++ {
				convey.So(q.Enqueue(ctx, worker.Task{RunID: "run-1", Seq: i, Member: "멤버"}), convey.ShouldBeTrue)
			}

			ok := waitFor(func() bool { return len(sink.delivered()) == 4 }, 2*time.Second)

			convey.Convey("Then every task is delivered", func() {
				convey.So(ok, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When shutting the pool down", func() {
			err := pool.Shutdown(ctx)

			convey.Convey("Then the queue is closed and workers stop", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a pool asked for zero workers", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		sink := &mockSink{}
		pool := worker.NewPool(0, q, &mockResolver{}, sink, worker.WithPacing(0))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		convey.Convey("When a task is enqueued", func() {
			convey.So(q.Enqueue(ctx, worker.Task{RunID: "run-1", Seq: 0, Member: "하나"}), convey.ShouldBeTrue)

			ok := waitFor(func() bool { return len(sink.delivered()) == 1 }, 2*time.Second)

			convey.Convey("Then the count collapses to one worker and still drains", func() {
				convey.So(ok, convey.ShouldBeTrue)
			})
		})
	})
}
