package config

import (
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer `yaml:"http_server"`
	WSServer   `yaml:"ws_server"`
	MySQL      `yaml:"mysql"`
	Redis      `yaml:"redis"`
	Pusher     `yaml:"pusher"`
	Provider   ProviderConfig `yaml:"provider"`
	Wheel      WheelTiming    `yaml:"wheel"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type WSServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8081"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type MySQL struct {
	DSN string `yaml:"dsn" env:"MYSQL_DSN" env-required:"true"`
}

type Redis struct {
	Address  string `yaml:"address" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
}

type Pusher struct {
	AppID   string `yaml:"app_id" env:"PUSHER_APP_ID"`
	Key     string `yaml:"key" env:"PUSHER_KEY"`
	Secret  string `yaml:"secret" env:"PUSHER_SECRET"`
	Cluster string `yaml:"cluster" env-default:"eu"`
}

// ProviderConfig holds the shared secret for the external game
// aggregator callback signature and the prefix its player handles carry.
type ProviderConfig struct {
	Salt           string `yaml:"salt" env:"PROVIDER_SALT"`
	UsernamePrefix string `yaml:"username_prefix" env-default:"gh"`
}

// WheelTiming controls the round driver windows. Both are measured from
// the round's createdAt, never from loop wake-up.
type WheelTiming struct {
	BetWindow    time.Duration `yaml:"bet_window" env-default:"15s"`
	RevealWindow time.Duration `yaml:"reveal_window" env-default:"5s"`
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		panic("CONFIG_PATH is not set")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	return &cfg
}
