package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/bizboard/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverMemory)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.UpsertMaxAttempts, convey.ShouldEqual, 3)
			convey.So(cfg.FailureSampleSize, convey.ShouldEqual, 10)
			convey.So(cfg.PasscodeLength, convey.ShouldEqual, 6)
			convey.So(cfg.RunTimeoutSeconds, convey.ShouldEqual, 600)
			convey.So(cfg.MetricsEnabled, convey.ShouldBeTrue)
			convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "bizboard")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		convey.Convey("When the store driver is unknown", func() {
			cfg.StoreDriver = "firestore"

			convey.Convey("Then validation fails with ErrInvalidConfig", func() {
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "firestore")
			})
		})

		convey.Convey("When postgres is selected without a DSN", func() {
			cfg.StoreDriver = config.DriverPostgres

			convey.Convey("Then validation fails", func() {
				convey.So(cfg.Validate(), convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the run budget or metrics refresh is not positive", func() {
			noBudget := config.New()
			noBudget.RunTimeoutSeconds = 0
			noRefresh := config.New()
			noRefresh.MetricsRefreshSeconds = 0

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(noBudget.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(errors.Is(noRefresh.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When worker_count is zero", func() {
			cfg.WorkerCount = 0

			convey.Convey("Then validation fails", func() {
				convey.So(cfg.Validate(), convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the watcher is enabled without directories", func() {
			cfg.WatchEnabled = true
			cfg.WatchProposalsDir = ""

			convey.Convey("Then validation fails", func() {
				convey.So(cfg.Validate(), convey.ShouldNotBeNil)
			})
		})
	})
}
