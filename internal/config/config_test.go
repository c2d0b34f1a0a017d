package config_test

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/okian/incomelens/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
			convey.So(cfg.MLHealthTimeoutMS, convey.ShouldEqual, 5000)
			convey.So(cfg.MLPredictTimeoutMS, convey.ShouldEqual, 15000)
			convey.So(cfg.MLMaxRetries, convey.ShouldEqual, 0)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.MaxBatchSize, convey.ShouldEqual, 100)
			convey.So(cfg.CurrencyLocale, convey.ShouldEqual, "en-IN")
			convey.So(cfg.CurrencySymbol, convey.ShouldEqual, "₹")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the timeouts should convert to durations", func() {
			convey.So(cfg.HealthTimeout(), convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.PredictTimeout(), convey.ShouldEqual, 15*time.Second)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cases := []struct {
			name   string
			mutate func(*config.Config)
			msg    string
		}{
			{"empty addr", func(c *config.Config) { c.Addr = " " }, "addr must not be empty"},
			{"empty base url", func(c *config.Config) { c.MLBaseURL = "" }, "ml_base_url must not be empty"},
			{"zero health timeout", func(c *config.Config) { c.MLHealthTimeoutMS = 0 }, "ml_health_timeout_ms"},
			{"negative predict timeout", func(c *config.Config) { c.MLPredictTimeoutMS = -1 }, "ml_predict_timeout_ms"},
			{"negative retries", func(c *config.Config) { c.MLMaxRetries = -1 }, "ml_max_retries"},
			{"zero batch size", func(c *config.Config) { c.MaxBatchSize = 0 }, "max_batch_size"},
		}

		for _, tc := range cases {
			convey.Convey("When the config has "+tc.name, func() {
				cfg := config.New()
				tc.mutate(cfg)
				err := cfg.Validate()

				convey.Convey("Then it should be rejected as invalid", func() {
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
					convey.So(err.Error(), convey.ShouldContainSubstring, tc.msg)
				})
			})
		}

		convey.Convey("When the predict timeout is zero", func() {
			cfg := config.New()
			cfg.MLPredictTimeoutMS = 0

			convey.Convey("Then it should be accepted as disabled", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
				convey.So(cfg.PredictTimeout(), convey.ShouldEqual, time.Duration(0))
			})
		})
	})
}
