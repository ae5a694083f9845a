package config_test

import (
	"context"
	"runtime"
	"testing"

	"github.com/okian/dugout/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.DataDir, convey.ShouldEqual, "data")
			convey.So(cfg.InMemory, convey.ShouldBeFalse)
			convey.So(cfg.SyncWrites, convey.ShouldBeFalse)
			convey.So(cfg.RebuildWorkers, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.RebuildQueueSize, convey.ShouldEqual, 4096)
			convey.So(cfg.GCIntervalMinutes, convey.ShouldEqual, 5)
			convey.So(cfg.StatsIntervalSeconds, convey.ShouldEqual, 30)
		})
	})
}
