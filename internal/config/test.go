package config

import "github.com/caarlos0/env/v11"

type TestConfig struct {
	TestRedisURL string `env:"TEST_REDIS_URL,required,notEmpty"`
}

func LoadTest() (TestConfig, error) {
	var cfg TestConfig
	err := env.Parse(&cfg)
	return cfg, err
}
