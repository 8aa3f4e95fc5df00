package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.App.Name != "campus-clock" {
		t.Errorf("app name = %q, want campus-clock", cfg.App.Name)
	}
	if cfg.App.Port != 8080 {
		t.Errorf("app port = %d, want 8080", cfg.App.Port)
	}
	if cfg.Schedule.DailyAt != "08:00" {
		t.Errorf("daily_at = %q, want 08:00", cfg.Schedule.DailyAt)
	}
	if cfg.Schedule.Timezone != "Asia/Shanghai" {
		t.Errorf("timezone = %q, want Asia/Shanghai", cfg.Schedule.Timezone)
	}
	if cfg.Schedule.PollInterval != 15*time.Second {
		t.Errorf("poll interval = %v, want 15s", cfg.Schedule.PollInterval)
	}
	if cfg.Portal.RequestTimeout != 30*time.Second {
		t.Errorf("portal timeout = %v, want 30s", cfg.Portal.RequestTimeout)
	}
	if cfg.Redis.QueuePrefix != "clock:attempt_queue" {
		t.Errorf("queue prefix = %q", cfg.Redis.QueuePrefix)
	}
	if len(cfg.Kafka.Brokers) != 0 {
		t.Errorf("kafka brokers = %v, want none by default", cfg.Kafka.Brokers)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CLOCK_APP_PORT", "9090")
	t.Setenv("CLOCK_SCHEDULE_DAILY_AT", "07:30")
	t.Setenv("CLOCK_POSTGRES_MIGRATE", "false")
	t.Setenv("CLOCK_ADMIN_TOKEN_TTL", "1h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.App.Port != 9090 {
		t.Errorf("app port = %d, want 9090", cfg.App.Port)
	}
	if cfg.Schedule.DailyAt != "07:30" {
		t.Errorf("daily_at = %q, want 07:30", cfg.Schedule.DailyAt)
	}
	if cfg.Postgres.Migrate {
		t.Error("postgres migrate should be disabled by env override")
	}
	if cfg.Admin.TokenTTL != time.Hour {
		t.Errorf("token ttl = %v, want 1h", cfg.Admin.TokenTTL)
	}
}
