package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string `yaml:"socket-port" env:"SOCKET_PORT" env-default:"8080"`
	Redis      Redis  `yaml:"redis"`
	Game       Game   `yaml:"game"`
}

// Redis holds the match archive connection. An empty host disables the archive.
type Redis struct {
	Host        string        `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port        string        `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	MatchTTL    time.Duration `yaml:"match-ttl" env:"REDIS_MATCH_TTL" env-default:"168h"`
	RecentLimit int64         `yaml:"recent-limit" env:"REDIS_RECENT_LIMIT" env-default:"100"`
}

type Game struct {
	RoomTokenLength     int  `yaml:"room-token-length" env:"GAME_ROOM_TOKEN_LENGTH" env-default:"8"`
	NotifyRejectedMoves bool `yaml:"notify-rejected-moves" env:"GAME_NOTIFY_REJECTED_MOVES" env-default:"false"`
	SendBuffer          int  `yaml:"send-buffer" env:"GAME_SEND_BUFFER" env-default:"64"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

// Load - reads the config file at path and applies environment overrides.
func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	return config, nil
}

// Enabled - reports whether a redis host was configured.
func (that *Redis) Enabled() bool {
	return that.Host != ""
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
