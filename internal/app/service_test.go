package service_test

import (
	"context"
	"testing"
	"time"

	service "github.com/okian/dugout/internal/app"
	"github.com/okian/dugout/internal/macro"
	"github.com/okian/dugout/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithInMemory(),
			service.WithWorkerCount(2),
			service.WithQueueSize(64),
			service.WithStatsInterval(time.Second),
		)

		Convey("Then it should be created successfully", func() {
			So(svc, ShouldNotBeNil)
		})
	})
}

func TestService_Start(t *testing.T) {
	Convey("Given a new in-memory service", t, func() {
		svc := service.New(service.WithInMemory())
		// Ensure service is stopped after test
		defer svc.Stop()

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
			})

			Convey("And it should be marked as started", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
			})

			Convey("And starting again should be a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})
		})
	})
}

func TestService_Stop(t *testing.T) {
	Convey("Given a started in-memory service", t, func() {
		svc := service.New(service.WithInMemory())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := svc.Start(ctx)
		So(err, ShouldBeNil)

		Convey("When stopping the service", func() {
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, false)
			})

			Convey("And stopping again should be a no-op", func() {
				So(svc.Stop, ShouldNotPanic)
			})
		})
	})
}

func TestService_MarkPending(t *testing.T) {
	Convey("Given a started in-memory service", t, func() {
		svc := service.New(service.WithInMemory())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := svc.Start(ctx)
		So(err, ShouldBeNil)
		// Ensure service is stopped after test
		defer svc.Stop()

		Convey("When marking a new macro key", func() {
			pending := svc.MarkPending(ctx, "macro:player:jose_altuve:2019")

			Convey("Then it should not have been pending before", func() {
				So(pending, ShouldBeFalse)
			})

			Convey("And marking it again should report it pending", func() {
				So(svc.MarkPending(ctx, "macro:player:jose_altuve:2019"), ShouldBeTrue)
			})

			Convey("And clearing it should allow a fresh mark", func() {
				svc.Clear(ctx, "macro:player:jose_altuve:2019")
				So(svc.MarkPending(ctx, "macro:player:jose_altuve:2019"), ShouldBeFalse)
			})
		})
	})
}

func TestService_Enqueue(t *testing.T) {
	Convey("Given a started in-memory service", t, func() {
		svc := service.New(service.WithInMemory(), service.WithWorkerCount(1))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := svc.Start(ctx)
		So(err, ShouldBeNil)

		Convey("When enqueueing a rebuild job", func() {
			job := macro.Job{Kind: "player", Subject: "jose_altuve", Season: 2019}
			success := svc.Enqueue(ctx, job)

			Convey("Then it should be enqueued successfully", func() {
				So(success, ShouldBeTrue)
			})

			svc.Stop()
		})

		Convey("When enqueueing after the service stopped", func() {
			svc.Stop()
			job := macro.Job{Kind: "player", Subject: "jose_altuve", Season: 2019}

			Convey("Then the job should be rejected", func() {
				So(svc.Enqueue(ctx, job), ShouldBeFalse)
			})
		})
	})
}

func TestService_GetStats(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithInMemory())

		Convey("When getting stats before starting", func() {
			stats := svc.GetStats()

			Convey("Then it should return basic stats", func() {
				So(stats, ShouldNotBeNil)
				So(stats["started"], ShouldEqual, false)
				So(stats["in_memory"], ShouldEqual, true)
			})
		})

		Convey("When getting stats after starting", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			stats := svc.GetStats()

			Convey("Then it should include runtime counters", func() {
				So(stats["started"], ShouldEqual, true)
				So(stats["queue_size"], ShouldEqual, 0)
				So(stats["pending_rebuilds"], ShouldEqual, 0)
			})
		})
	})
}
