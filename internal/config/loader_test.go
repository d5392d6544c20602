package config_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/okian/streetpass/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, "memory")
				convey.So(cfg.LivenessTimeoutMS, convey.ShouldEqual, 300_000)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("STREETPASS_ADDR", ":8080")
			_ = os.Setenv("STREETPASS_STORE_DRIVER", "sqlite")
			_ = os.Setenv("STREETPASS_SQLITE_DSN", "file:test.db")
			_ = os.Setenv("STREETPASS_TIMEZONE", "UTC")
			_ = os.Setenv("STREETPASS_LIVENESS_TIMEOUT_MS", "120000")
			_ = os.Setenv("STREETPASS_ENCOUNTER_DISTANCE_M", "250.5")
			_ = os.Setenv("STREETPASS_GEOCODE_ENABLED", "true")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverSQLite)
				convey.So(cfg.SQLiteDSN, convey.ShouldEqual, "file:test.db")
				convey.So(cfg.Timezone, convey.ShouldEqual, "UTC")
				convey.So(cfg.LivenessTimeout(), convey.ShouldEqual, 2*time.Minute)
				convey.So(cfg.EncounterDistanceM, convey.ShouldEqual, 250.5)
				convey.So(cfg.GeocodeEnabled, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
log_format: json
timezone: Europe/Berlin
online_limit: 10
encounter_window_ms: 60000
redis_addr: "localhost:6379"
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("STREETPASS_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.Timezone, convey.ShouldEqual, "Europe/Berlin")
				convey.So(cfg.OnlineLimit, convey.ShouldEqual, 10)
				convey.So(cfg.EncounterWindow(), convey.ShouldEqual, time.Minute)
				convey.So(cfg.RedisAddr, convey.ShouldEqual, "localhost:6379")
				convey.So(cfg.RecentLimit, convey.ShouldEqual, 20)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile("addr: \":9090\"\nonline_limit: 10\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("STREETPASS_CONFIG", tmpFile)
			_ = os.Setenv("STREETPASS_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then env vars should take precedence", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.OnlineLimit, convey.ShouldEqual, 10)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("STREETPASS_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an unknown store driver", func() {
			_ = os.Setenv("STREETPASS_STORE_DRIVER", "postgres")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "postgres")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an unknown timezone", func() {
			_ = os.Setenv("STREETPASS_TIMEZONE", "Nowhere/Special")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(errors.Is(err, config.ErrUnknownTimezone), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "Nowhere/Special")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"STREETPASS_CONFIG",
		"STREETPASS_ADDR",
		"STREETPASS_STORE_DRIVER",
		"STREETPASS_SQLITE_DSN",
		"STREETPASS_TIMEZONE",
		"STREETPASS_LIVENESS_TIMEOUT_MS",
		"STREETPASS_ENCOUNTER_DISTANCE_M",
		"STREETPASS_GEOCODE_ENABLED",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "streetpass-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
