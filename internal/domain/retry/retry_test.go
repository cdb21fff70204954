package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/minseo-lab/guildmain/internal/domain/retry"
	. "github.com/smartystreets/goconvey/convey"
)

var errTooManyRequests = errors.New("too many requests")

func rateLimited(err error) bool {
	return errors.Is(err, errTooManyRequests)
}

func TestDo_Success(t *testing.T) {
	Convey("Given a policy with defaults", t, func() {
		p := retry.NewPolicy(retry.WithRetryable(rateLimited), retry.WithBackoff(0))
		ctx := context.Background()

		Convey("When the call succeeds on the first attempt", func() {
			calls := 0
			v, err := retry.Do(ctx, p, func(ctx context.Context) (string, error) {
				calls++
				return "ok", nil
			})

			Convey("Then it should return the value after one call", func() {
				So(err, ShouldBeNil)
				So(v, ShouldEqual, "ok")
				So(calls, ShouldEqual, 1)
			})
		})

		Convey("When the call succeeds after one rate-limited attempt", func() {
			calls := 0
			v, err := retry.Do(ctx, p, func(ctx context.Context) (string, error) {
				calls++
				if calls == 1 {
					return "", errTooManyRequests
				}
				return "ok", nil
			})

			Convey("Then it should retry and return the value", func() {
				So(err, ShouldBeNil)
				So(v, ShouldEqual, "ok")
				So(calls, ShouldEqual, 2)
			})
		})
	})
}

func TestDo_AttemptBudget(t *testing.T) {
	Convey("Given a policy with three attempts and zero backoff", t, func() {
		p := retry.NewPolicy(
			retry.WithMaxAttempts(3),
			retry.WithBackoff(0),
			retry.WithRetryable(rateLimited),
		)
		ctx := context.Background()

		Convey("When every attempt is rate limited", func() {
			calls := 0
			_, err := retry.Do(ctx, p, func(ctx context.Context) (int, error) {
				calls++
				return 0, errTooManyRequests
			})

			Convey("Then it should stop after exactly three attempts", func() {
				So(calls, ShouldEqual, 3)
			})

			Convey("And it should return the last error", func() {
				So(errors.Is(err, errTooManyRequests), ShouldBeTrue)
			})
		})
	})
}

func TestDo_NonRetryable(t *testing.T) {
	Convey("Given a policy that only retries rate limits", t, func() {
		p := retry.NewPolicy(retry.WithRetryable(rateLimited), retry.WithBackoff(0))
		ctx := context.Background()

		Convey("When the call fails with a different error", func() {
			wantErr := errors.New("character not found")
			calls := 0
			_, err := retry.Do(ctx, p, func(ctx context.Context) (int, error) {
				calls++
				return 0, wantErr
			})

			Convey("Then it should fail immediately without retrying", func() {
				So(calls, ShouldEqual, 1)
				So(errors.Is(err, wantErr), ShouldBeTrue)
			})
		})
	})

	Convey("Given a policy with no retryable predicate", t, func() {
		p := retry.NewPolicy(retry.WithBackoff(0))
		ctx := context.Background()

		Convey("When the call fails", func() {
			calls := 0
			_, err := retry.Do(ctx, p, func(ctx context.Context) (int, error) {
				calls++
				return 0, errTooManyRequests
			})

			Convey("Then nothing is ever retried", func() {
				So(calls, ShouldEqual, 1)
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestDo_ContextCanceled(t *testing.T) {
	Convey("Given a policy with a long backoff", t, func() {
		p := retry.NewPolicy(
			retry.WithBackoff(time.Hour),
			retry.WithRetryable(rateLimited),
		)

		Convey("When the context is canceled during the backoff wait", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			start := time.Now()
			_, err := retry.Do(ctx, p, func(ctx context.Context) (int, error) {
				return 0, errTooManyRequests
			})

			Convey("Then it should return the context error promptly", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(time.Since(start), ShouldBeLessThan, time.Second)
			})
		})
	})
}

func TestNewPolicy_Options(t *testing.T) {
	Convey("Given policy options", t, func() {
		Convey("When constructed with defaults", func() {
			p := retry.NewPolicy()

			Convey("Then the attempt budget is three", func() {
				So(p.MaxAttempts(), ShouldEqual, 3)
			})
		})

		Convey("When constructed with a custom budget", func() {
			p := retry.NewPolicy(retry.WithMaxAttempts(5))

			Convey("Then the budget is applied", func() {
				So(p.MaxAttempts(), ShouldEqual, 5)
			})
		})

		Convey("When constructed with an invalid budget", func() {
			p := retry.NewPolicy(retry.WithMaxAttempts(0))

			Convey("Then the default is kept", func() {
				So(p.MaxAttempts(), ShouldEqual, 3)
			})
		})
	})
}
