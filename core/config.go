package core

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	DriverSqlite = "sqlite"
	DriverMongo  = "mongo"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

type Config struct {
	Env           string        `yaml:"env" env:"ENV" env-default:"local" env-description:"local, dev or prod"`
	TelegramToken string        `yaml:"telegram_token" env:"TELEGRAM_TOKEN" env-required:"true" env-description:"bot authentication token"`
	Username      string        `yaml:"username" env:"BOT_USERNAME" env-default:""`
	ResetInterval time.Duration `yaml:"reset_interval" env:"RESET_INTERVAL" env-default:"24h"`
	Limits        Limits        `yaml:"limits"`
	Chat          Chat          `yaml:"chat"`
	Search        Search        `yaml:"search"`
	Image         Image         `yaml:"image"`
	Storage       Storage       `yaml:"storage"`
	Sqlite        Sqlite        `yaml:"sqlite"`
	Mongo         Mongo         `yaml:"mongo"`
	Redis         Redis         `yaml:"redis"`
}

type Limits struct {
	DailyRequests    int `yaml:"daily_requests" env:"DAILY_REQUESTS" env-default:"50"`
	MaxMessageLength int `yaml:"max_message_length" env:"MAX_MESSAGE_LENGTH" env-default:"4000"`
}

type Chat struct {
	BaseURL     string        `yaml:"base_url" env:"CHAT_BASE_URL" env-default:"https://router.huggingface.co/v1"`
	APIKey      string        `yaml:"api_key" env:"CHAT_API_KEY" env-default:""`
	Model       string        `yaml:"model" env:"CHAT_MODEL" env-default:"microsoft/DialoGPT-medium"`
	Temperature float32       `yaml:"temperature" env:"CHAT_TEMPERATURE" env-default:"0.7"`
	MaxTokens   int           `yaml:"max_tokens" env:"CHAT_MAX_TOKENS" env-default:"500"`
	Timeout     time.Duration `yaml:"timeout" env:"CHAT_TIMEOUT" env-default:"30s"`
}

type Search struct {
	BaseURL       string        `yaml:"base_url" env:"SEARCH_BASE_URL" env-default:"https://api.duckduckgo.com/"`
	Timeout       time.Duration `yaml:"timeout" env:"SEARCH_TIMEOUT" env-default:"20s"`
	AbstractLimit int           `yaml:"abstract_limit" env-default:"1000"`
	TopicLimit    int           `yaml:"topic_limit" env-default:"200"`
	MaxTopics     int           `yaml:"max_topics" env-default:"2"`
}

type Image struct {
	BaseURL string `yaml:"base_url" env:"IMAGE_BASE_URL" env-default:"https://picsum.photos/512/512"`
}

type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"sqlite" env-description:"sqlite, mongo, redis or memory"`
}

type Sqlite struct {
	Path string `yaml:"path" env:"SQLITE_PATH" env-default:"bot_data.db"`
}

type Mongo struct {
	Host     string `yaml:"host" env:"MONGO_HOST" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"MONGO_PORT" env-default:"27017"`
	User     string `yaml:"user" env:"MONGO_USER" env-default:"admin"`
	Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:"pass"`
	Database string `yaml:"database" env:"MONGO_DATABASE" env-default:"relay"`
}

func (m Mongo) URI() string {
	return fmt.Sprintf("mongodb://%s:%s@%s:%s", m.User, m.Password, m.Host, m.Port)
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"127.0.0.1:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// Load reads the yaml file at path when it exists, then the environment.
// A missing TELEGRAM_TOKEN is reported together with the variable descriptions.
func Load(path string) (*Config, error) {
	conf := &Config{}

	var err error
	if _, statErr := os.Stat(path); statErr == nil {
		err = cleanenv.ReadConfig(path, conf)
	} else if errors.Is(statErr, os.ErrNotExist) {
		err = cleanenv.ReadEnv(conf)
	} else {
		return nil, fmt.Errorf("config: %w", statErr)
	}
	if err != nil {
		desc, _ := cleanenv.GetDescription(conf, nil)
		return nil, fmt.Errorf("config: %s; %s", err, desc)
	}

	if err = conf.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return conf, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverSqlite, DriverMongo, DriverRedis, DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Limits.DailyRequests < 0 {
		return errors.New("limits.daily_requests must not be negative")
	}
	// truncation keeps max_message_length-100 runes
	if c.Limits.MaxMessageLength <= 100 {
		return errors.New("limits.max_message_length must be greater than 100")
	}
	if c.ResetInterval <= 0 {
		return errors.New("reset_interval must be positive")
	}
	return nil
}
