package bootstrap

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ServerPort      string        `mapstructure:"SERVER_PORT"`
	WsURL           string        `mapstructure:"WS_URL"`
	RedisUrl        string        `mapstructure:"REDIS_URL"`
	MongoUri        string        `mapstructure:"MONGO_URI"`
	MongoDatabase   string        `mapstructure:"MONGO_DATABASE"`
	BotGrpcAddr     string        `mapstructure:"BOT_GRPC_ADDR"`
	BotGrpcPort     string        `mapstructure:"BOT_GRPC_PORT"`
	BotEngineUrl    string        `mapstructure:"BOT_ENGINE_URL"`
	JwtSecret       string        `mapstructure:"JWT_SECRET"`
	IsLocalCors     bool          `mapstructure:"LOCAL_CORS"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	MainTimeMs      int64         `mapstructure:"MAIN_TIME_MS"`
	StartTimeout    time.Duration `mapstructure:"START_TIMEOUT"`
	RetentionWindow time.Duration `mapstructure:"RETENTION_WINDOW"`
	TicketTTL       time.Duration `mapstructure:"TICKET_TTL"`
	Komi            float64       `mapstructure:"KOMI"`
	KoRule          bool          `mapstructure:"KO_RULE"`
	BoardSize       int           `mapstructure:"BOARD_SIZE"`
	SendBuffer      int           `mapstructure:"SEND_BUFFER"`
}

var defaults = map[string]any{
	"SERVER_PORT":      "8080",
	"WS_URL":           "ws://localhost:8080",
	"REDIS_URL":        "localhost:6379",
	"MONGO_URI":        "mongodb://localhost:27017",
	"MONGO_DATABASE":   "goarena",
	"BOT_GRPC_ADDR":    "",
	"BOT_GRPC_PORT":    "8082",
	"BOT_ENGINE_URL":   "",
	"JWT_SECRET":       "",
	"LOCAL_CORS":       false,
	"LOG_LEVEL":        "info",
	"MAIN_TIME_MS":     900000,
	"START_TIMEOUT":    "60s",
	"RETENTION_WINDOW": "5m",
	"TICKET_TTL":       "2m",
	"KOMI":             7.5,
	"KO_RULE":          true,
	"BOARD_SIZE":       19,
	"SEND_BUFFER":      32,
}

// Setup reads cfgPath if it exists; environment variables override it.
func Setup(cfgPath string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	// REDIS_URL= or MONGO_URI= in the environment switches that store off
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
