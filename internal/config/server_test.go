package config

import "testing"

func setPusherEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PUSHER_APP_ID", "123")
	t.Setenv("PUSHER_KEY", "key")
	t.Setenv("PUSHER_SECRET", "secret")
	t.Setenv("PUSHER_CLUSTER", "mt1")
}

func TestLoadServerDefaults(t *testing.T) {
	setPusherEnv(t)

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.StoreDriver != StoreDriverMemory {
		t.Fatalf("StoreDriver = %q, want memory", cfg.StoreDriver)
	}
	if cfg.SessionTTLSecs != 3600 {
		t.Fatalf("SessionTTLSecs = %d, want 3600", cfg.SessionTTLSecs)
	}
	if cfg.JoinAutoSeat {
		t.Fatal("JoinAutoSeat should default to false")
	}
}

func TestLoadServerRequiresPusherCredentials(t *testing.T) {
	t.Setenv("PUSHER_APP_ID", "")

	_, err := LoadServer()
	if err == nil {
		t.Fatal("LoadServer() expected error, got nil")
	}
}

func TestLoadServerRedisDriverRequiresURL(t *testing.T) {
	setPusherEnv(t)
	t.Setenv("STORE_DRIVER", "redis")

	if _, err := LoadServer(); err == nil {
		t.Fatal("LoadServer() expected error without REDIS_URL, got nil")
	}

	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.StoreDriver != StoreDriverRedis {
		t.Fatalf("StoreDriver = %q, want redis", cfg.StoreDriver)
	}
}

func TestLoadAppComposesSections(t *testing.T) {
	setPusherEnv(t)
	t.Setenv("LOG_LEVEL", "warn")

	app, err := LoadApp()
	if err != nil {
		t.Fatalf("LoadApp() error = %v", err)
	}
	if app.Log.Level != "warn" {
		t.Fatalf("Log.Level = %q, want warn", app.Log.Level)
	}
	if app.Server.HTTPAddr != ":8080" {
		t.Fatalf("Server.HTTPAddr = %q, want :8080", app.Server.HTTPAddr)
	}
}

func TestLoadAppPropagatesServerError(t *testing.T) {
	setPusherEnv(t)
	t.Setenv("STORE_DRIVER", "etcd")

	if _, err := LoadApp(); err == nil {
		t.Fatal("LoadApp() expected error for unknown driver, got nil")
	}
}

func TestLoadServerRejectsUnknownDriver(t *testing.T) {
	setPusherEnv(t)
	t.Setenv("STORE_DRIVER", "etcd")

	if _, err := LoadServer(); err == nil {
		t.Fatal("LoadServer() expected error for unknown driver, got nil")
	}
}
