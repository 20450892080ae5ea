package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StoreDriverMemory = "memory"
	StoreDriverRedis  = "redis"
)

type ServerConfig struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	// StoreDriver picks the session store backend: "memory" keeps everything
	// in-process, "redis" shares state across processes.
	StoreDriver string `env:"STORE_DRIVER" envDefault:"memory"`
	RedisURL    string `env:"REDIS_URL"`

	SessionTTLSecs    int  `env:"SESSION_TTL_SECONDS" envDefault:"3600"`
	SweepIntervalSecs int  `env:"SWEEP_INTERVAL_SECONDS" envDefault:"60"`
	JoinAutoSeat      bool `env:"JOIN_AUTOSEAT" envDefault:"false"`

	PusherAppID   string `env:"PUSHER_APP_ID,required,notEmpty"`
	PusherKey     string `env:"PUSHER_KEY,required,notEmpty"`
	PusherSecret  string `env:"PUSHER_SECRET,required,notEmpty"`
	PusherCluster string `env:"PUSHER_CLUSTER,required,notEmpty"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	switch cfg.StoreDriver {
	case StoreDriverMemory:
	case StoreDriverRedis:
		if cfg.RedisURL == "" {
			return cfg, fmt.Errorf("REDIS_URL is required when STORE_DRIVER=redis")
		}
	default:
		return cfg, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	return cfg, nil
}

func (c ServerConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSecs) * time.Second
}

func (c ServerConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSecs) * time.Second
}
