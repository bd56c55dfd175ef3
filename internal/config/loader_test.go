package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWritesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, resolved, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if cfg.Store.Driver != DriverSQLite || cfg.Rooms.DefaultMaxParticipants != 2 || cfg.Typing.TTL != 3*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}

	again, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again != cfg {
		t.Fatalf("reloaded config differs:\n%+v\n%+v", again, cfg)
	}
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
addr: ":9000"
log_level: debug
store:
  driver: memory
rooms:
  default_max_participants: 4
  max_participants_limit: 10
typing:
  ttl: 2s
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("ROOMCHAT_ADDR", ":9100")
	t.Setenv("ROOMCHAT_ROOMS_MAX_PARTICIPANTS_LIMIT", "20")

	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9100" {
		t.Fatalf("env should override file addr, got %q", cfg.Addr)
	}
	if cfg.LogLevel != "debug" || cfg.Store.Driver != DriverMemory {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Rooms.DefaultMaxParticipants != 4 || cfg.Rooms.MaxParticipantsLimit != 20 {
		t.Fatalf("unexpected rooms config: %+v", cfg.Rooms)
	}
	if cfg.Typing.TTL != 2*time.Second || cfg.Typing.SweepInterval != time.Second {
		t.Fatalf("unexpected typing config: %+v", cfg.Typing)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Fatalf("default shutdown timeout lost: %v", cfg.ShutdownTimeout)
	}
}

func TestLoadFallsBackWhenFileCannotBeCreated(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, nil, 0o600); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	t.Setenv("ROOMCHAT_STORE_DRIVER", "memory")

	cfg, _, err := Load(nil, filepath.Join(blocker, "config.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Driver != DriverMemory || cfg.Addr != ":8080" {
		t.Fatalf("expected defaults plus env, got %+v", cfg)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("store:\n  driver: etcd\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, err := Load(nil, path); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "json logs", mutate: func(c *Config) { c.LogFormat = "json" }},
		{name: "unknown log format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: true},
		{name: "redis", mutate: func(c *Config) { c.Store.Driver = DriverRedis }},
		{name: "redis without url", mutate: func(c *Config) {
			c.Store.Driver = DriverRedis
			c.Store.RedisURL = ""
		}, wantErr: true},
		{name: "sqlite without path", mutate: func(c *Config) { c.Store.SQLitePath = "" }, wantErr: true},
		{name: "capacity below two", mutate: func(c *Config) { c.Rooms.DefaultMaxParticipants = 1 }, wantErr: true},
		{name: "limit below default", mutate: func(c *Config) {
			c.Rooms.DefaultMaxParticipants = 5
			c.Rooms.MaxParticipantsLimit = 3
		}, wantErr: true},
		{name: "typing disabled", mutate: func(c *Config) { c.Typing.TTL = 0 }},
		{name: "negative ttl", mutate: func(c *Config) { c.Typing.TTL = -time.Second }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUpdateFromOverridesNonZero(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{
		Addr:  ":1234",
		Store: StoreConfig{Driver: DriverMemory},
		Typing: TypingConfig{
			SweepInterval: 250 * time.Millisecond,
		},
	})
	if cfg.Addr != ":1234" || cfg.Store.Driver != DriverMemory {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Store.SQLitePath != "roomchat.db" || cfg.Typing.TTL != 3*time.Second {
		t.Fatalf("zero values must not override: %+v", cfg)
	}
	if cfg.Typing.SweepInterval != 250*time.Millisecond {
		t.Fatalf("sweep interval = %v", cfg.Typing.SweepInterval)
	}
}
