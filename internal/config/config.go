package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"guesthouse/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App           AppConfig           `yaml:"app"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Backup        BackupConfig        `yaml:"backup"`
	Monitoring    MonitoringConfig    `yaml:"monitoring"`
	Logging       LoggingConfig       `yaml:"logging"`
	API           APIConfig           `yaml:"api"`
	Store         StoreConfig         `yaml:"store"`
	Booking       BookingConfig       `yaml:"booking"`
	Contact       ContactConfig       `yaml:"contact"`
	Rooms         []models.Room       `yaml:"rooms"`
	Notifications NotificationsConfig `yaml:"notifications"`
	AMQP          AMQPConfig          `yaml:"amqp"`
	Google        GoogleConfig        `yaml:"google"`
	Exports       ExportConfig        `yaml:"exports"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	GRPC      APIGRPCConfig      `yaml:"grpc"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIGRPCConfig struct {
	Enabled    bool         `yaml:"enabled"`
	Port       int          `yaml:"port"`
	Reflection bool         `yaml:"reflection"`
	TLS        APITLSConfig `yaml:"tls"`
}

type APITLSConfig struct {
	Enabled           bool   `yaml:"enabled"`
	CertFile          string `yaml:"cert_file"`
	KeyFile           string `yaml:"key_file"`
	ClientCAFile      string `yaml:"client_ca_file"`
	RequireClientCert bool   `yaml:"require_client_cert"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	// Префикс ключей кэша номеров
	KeyPrefix string `yaml:"key_prefix"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

// StoreConfig controls the live/fallback store switch.
type StoreConfig struct {
	RecoveryInterval time.Duration `yaml:"recovery_interval"`
	RoomsCacheTTL    time.Duration `yaml:"rooms_cache_ttl"`
}

type BookingConfig struct {
	DefaultRate      int64         `yaml:"default_rate"`
	LockedInsert     bool          `yaml:"locked_insert"`
	StalePendingTTL  time.Duration `yaml:"stale_pending_after"`
	PurgeInterval    time.Duration `yaml:"purge_interval"`
	AllowPastCheckIn bool          `yaml:"allow_past_check_in"`
}

type ContactConfig struct {
	Phone          string `yaml:"phone"`
	WhatsAppNumber string `yaml:"whatsapp_number"`
	DefaultMessage string `yaml:"default_message"`
}

type NotificationsConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool    `yaml:"enabled"`
	BotToken string  `yaml:"bot_token"`
	ChatIDs  []int64 `yaml:"chat_ids"`
	Debug    bool    `yaml:"debug"`

	// Commands turns on the staff command bot; ManagerIDs may run commands.
	Commands          bool          `yaml:"commands"`
	ManagerIDs        []int64       `yaml:"manager_ids"`
	RateLimitMessages int           `yaml:"rate_limit_messages"`
	RateLimitWindow   time.Duration `yaml:"rate_limit_window"`
}

type AMQPConfig struct {
	Enabled     bool   `yaml:"enabled"`
	URL         string `yaml:"url"`
	QueuePrefix string `yaml:"queue_prefix"`
}

type GoogleConfig struct {
	Enabled               bool   `yaml:"enabled"`
	GoogleCredentialsFile string `yaml:"credentials_file"`
	BookingSpreadSheetID  string `yaml:"bookings_spreadsheet_id"`
	SheetName             string `yaml:"sheet_name"`
}

func Load(configPath string) (*Config, error) {
	// Загружаем .env файл если существует
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.Booking.DefaultRate < 0 {
		return errors.New("booking.default_rate must not be negative")
	}
	if c.Notifications.Telegram.Enabled && c.Notifications.Telegram.BotToken == "" {
		return errors.New("notifications.telegram.bot_token is required when telegram is enabled")
	}
	if c.AMQP.Enabled && c.AMQP.URL == "" {
		return errors.New("amqp.url is required when amqp is enabled")
	}
	if c.Google.Enabled && (c.Google.GoogleCredentialsFile == "" || c.Google.BookingSpreadSheetID == "") {
		return errors.New("google.credentials_file and google.bookings_spreadsheet_id are required when google is enabled")
	}

	return ValidateRooms(c.Rooms)
}

// ValidateRooms checks a room catalog before it is seeded into the store.
func ValidateRooms(rooms []models.Room) error {
	roomIDs := make(map[string]bool)
	for _, room := range rooms {
		if room.ID == "" {
			return fmt.Errorf("room '%s' has empty ID", room.Name)
		}
		if roomIDs[room.ID] {
			return fmt.Errorf("duplicate room ID found: %s", room.ID)
		}
		if room.Capacity <= 0 {
			return fmt.Errorf("room %s must have positive capacity", room.ID)
		}
		if room.BedOnly < 0 || room.BB < 0 || room.HalfBoard < 0 || room.FullBoard < 0 {
			return fmt.Errorf("room %s has negative rate", room.ID)
		}
		roomIDs[room.ID] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "guesthouse"
	}
	if c.API.GRPC.Port == 0 {
		c.API.GRPC.Port = 8081
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if !c.API.HTTP.Enabled && c.API.Enabled {
		c.API.HTTP.Enabled = true
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = "guesthouse"
	}

	// Store defaults
	if c.Store.RecoveryInterval == 0 {
		c.Store.RecoveryInterval = time.Minute
	}
	if c.Store.RoomsCacheTTL == 0 {
		c.Store.RoomsCacheTTL = models.RoomsCacheTTL * time.Second
	}

	// Booking defaults
	if c.Booking.DefaultRate == 0 {
		c.Booking.DefaultRate = models.DefaultNightlyRate
	}
	if c.Booking.StalePendingTTL == 0 {
		c.Booking.StalePendingTTL = models.StalePendingHours * time.Hour
	}

	if c.Contact.Phone == "" {
		c.Contact.Phone = "+254712345678"
	}
	if c.Contact.WhatsAppNumber == "" {
		c.Contact.WhatsAppNumber = "254712345678"
	}
	if c.Contact.DefaultMessage == "" {
		c.Contact.DefaultMessage = "Hi, I'd like to book a room"
	}

	if c.Notifications.Telegram.RateLimitMessages == 0 {
		c.Notifications.Telegram.RateLimitMessages = 20
	}
	if c.Notifications.Telegram.RateLimitWindow == 0 {
		c.Notifications.Telegram.RateLimitWindow = time.Minute
	}

	if c.AMQP.QueuePrefix == "" {
		c.AMQP.QueuePrefix = "guesthouse"
	}
	if c.Google.SheetName == "" {
		c.Google.SheetName = "Bookings"
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
