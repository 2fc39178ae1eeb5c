package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("TELEGRAM_BOT_TOKEN", "test-token-123")
	defer os.Unsetenv("TELEGRAM_BOT_TOKEN")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Dispatch.BatchSize != 20 {
		t.Errorf("Expected default batch size 20, got %d", cfg.Dispatch.BatchSize)
	}
	if cfg.Dispatch.Interval != 30*time.Second {
		t.Errorf("Expected default interval 30s, got %v", cfg.Dispatch.Interval)
	}
	if cfg.Dispatch.StuckThreshold != 5*time.Minute {
		t.Errorf("Expected default stuck threshold 5m, got %v", cfg.Dispatch.StuckThreshold)
	}
	if cfg.Dispatch.MaxAttempts != 3 {
		t.Errorf("Expected default max attempts 3, got %d", cfg.Dispatch.MaxAttempts)
	}
	if cfg.Dispatch.WindowStartHour != 9 || cfg.Dispatch.WindowEndHour != 21 {
		t.Errorf("Expected default window 9-21, got %d-%d", cfg.Dispatch.WindowStartHour, cfg.Dispatch.WindowEndHour)
	}
	if cfg.Database.Name != "publisher" {
		t.Errorf("Expected default database name publisher, got %s", cfg.Database.Name)
	}
}

func TestLoad_MissingBotToken(t *testing.T) {
	os.Unsetenv("TELEGRAM_BOT_TOKEN")

	if _, err := Load(); err == nil {
		t.Fatal("Expected error when TELEGRAM_BOT_TOKEN is missing")
	}
}

func TestValidate_WindowBounds(t *testing.T) {
	base := func() *Config {
		return &Config{
			Telegram: TelegramConfig{BotToken: "token"},
			Dispatch: DispatchConfig{
				BatchSize:       20,
				MaxAttempts:     3,
				WindowStartHour: 9,
				WindowEndHour:   21,
			},
		}
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("Expected valid config, got %v", err)
	}

	cfg := base()
	cfg.Dispatch.WindowEndHour = 8
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error when window ends before it starts")
	}

	cfg = base()
	cfg.Dispatch.WindowStartHour = 25
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for an out-of-range start hour")
	}

	cfg = base()
	cfg.Dispatch.BatchSize = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for zero batch size")
	}
}

func TestDatabaseConfig_GetDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "db", Port: "5432", User: "u", Password: "p", Name: "publisher", SSLMode: "disable",
	}
	want := "host=db port=5432 user=u password=p dbname=publisher sslmode=disable"
	if got := cfg.GetDSN(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}
