package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Database   DatabaseConfig   `mapstructure:"database"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Calendar   CalendarConfig   `mapstructure:"calendar"`
	Scheduling SchedulingConfig `mapstructure:"scheduling"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

type DatabaseConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	UseInMemory bool   `mapstructure:"use_in_memory"`
}

type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

type CalendarConfig struct {
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	RefreshToken string   `mapstructure:"refresh_token"`
	CalendarIDs  []string `mapstructure:"calendar_ids"`
}

type SchedulingConfig struct {
	SlotDurationMinutes   int    `mapstructure:"slot_duration_minutes"`
	BusinessDayStartHour  int    `mapstructure:"business_day_start_hour"`
	BusinessDayEndHour    int    `mapstructure:"business_day_end_hour"`
	DefaultMeetingMinutes int    `mapstructure:"default_meeting_minutes"`
	Timezone              string `mapstructure:"timezone"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds"`
}

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}

	password, _ := u.User.Password()
	port := 5432 // default PostgreSQL port
	if u.Port() != "" {
		fmt.Sscanf(u.Port(), "%d", &port)
	}

	// Remove leading slash from path to get database name
	dbName := strings.TrimPrefix(u.Path, "/")

	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   dbName,
		SSLMode:  "disable",
	}, nil
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.use_in_memory", false)
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 300)
	v.SetDefault("openai.temperature", 0.3)
	v.SetDefault("calendar.calendar_ids", []string{"primary"})
	v.SetDefault("scheduling.slot_duration_minutes", 30)
	v.SetDefault("scheduling.business_day_start_hour", 8)
	v.SetDefault("scheduling.business_day_end_hour", 18)
	v.SetDefault("scheduling.default_meeting_minutes", 30)
	v.SetDefault("scheduling.timezone", "UTC")
	v.SetDefault("scheduling.request_timeout_seconds", 60)

	// Enable environment variable support
	v.AutomaticEnv()

	// Read the config file
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Check for DATABASE_URL environment variable
	if dbURL := v.GetString("DATABASE_URL"); dbURL != "" {
		dbConfig, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %v", err)
		}
		config.Database = dbConfig
	}

	// Get other environment variables
	if token := v.GetString("TELEGRAM_TOKEN"); token != "" {
		config.Telegram.Token = token
	}

	if apiKey := v.GetString("OPENAI_API_KEY"); apiKey != "" {
		config.OpenAI.APIKey = apiKey
	}

	if clientID := v.GetString("GOOGLE_CLIENT_ID"); clientID != "" {
		config.Calendar.ClientID = clientID
	}

	if clientSecret := v.GetString("GOOGLE_CLIENT_SECRET"); clientSecret != "" {
		config.Calendar.ClientSecret = clientSecret
	}

	if refreshToken := v.GetString("GOOGLE_REFRESH_TOKEN"); refreshToken != "" {
		config.Calendar.RefreshToken = refreshToken
	}

	return &config, nil
}
