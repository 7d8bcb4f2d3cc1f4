package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"oleotrax/certificate-portal/internal/certificates"
)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig      `json:"server"`
	Database    DatabaseConfig    `json:"database"`
	AWS         AWSConfig         `json:"aws"`
	Storage     StorageConfig     `json:"storage"`
	Email       EmailConfig       `json:"email"`
	Events      EventsConfig      `json:"events"`
	Security    SecurityConfig    `json:"security"`
	Logging     LoggingConfig     `json:"logging"`
	Certificate CertificateConfig `json:"certificate"`
	Scheduler   SchedulerConfig   `json:"scheduler"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

// DatabaseConfig represents database configuration. An empty Host keeps the
// register in memory.
type DatabaseConfig struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	User           string        `json:"user"`
	Password       string        `json:"password"`
	DBName         string        `json:"db_name"`
	SSLMode        string        `json:"ssl_mode"`
	MaxConnections int           `json:"max_connections"`
	MaxIdleConns   int           `json:"max_idle_conns"`
	MaxLifetime    time.Duration `json:"max_lifetime"`
}

// AWSConfig holds the shared SDK settings
type AWSConfig struct {
	Region          string `json:"region"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	Endpoint        string `json:"endpoint"`
}

// StorageConfig selects the artifact store: S3 when Bucket is set, a local
// directory when LocalDir is set, none otherwise
type StorageConfig struct {
	Bucket   string        `json:"bucket"`
	LocalDir string        `json:"local_dir"`
	LinkTTL  time.Duration `json:"link_ttl"`
}

type EmailConfig struct {
	FromAddress string `json:"from_address"`
	FromName    string `json:"from_name"`
}

type EventsConfig struct {
	TopicARN string `json:"topic_arn"`
}

// SecurityConfig guards the register API when JWTSecret is set
type SecurityConfig struct {
	JWTSecret string `json:"jwt_secret"`
	JWTIssuer string `json:"jwt_issuer"`
}

type LoggingConfig struct {
	Level       string `json:"level"`
	Environment string `json:"environment"`
}

// CertificateConfig carries the layout options of the certificate
type CertificateConfig struct {
	TableOrientation string               `json:"table_orientation"`
	PackagingBudget  *int                 `json:"packaging_budget,omitempty"`
	CellBudget       *int                 `json:"cell_budget,omitempty"`
	EmblemMode       string               `json:"emblem_mode"`
	LogoPath         string               `json:"logo_path"`
	Issuer           *certificates.Issuer `json:"issuer,omitempty"`
}

type SchedulerConfig struct {
	Enabled    bool     `json:"enabled"`
	Schedule   string   `json:"schedule"`
	Timezone   string   `json:"timezone"`
	Recipients []string `json:"recipients"`
}

// LoadConfig loads configuration from defaults, a JSON file, a .env file and
// environment variables, in increasing precedence
func LoadConfig(configPath string) (*Config, error) {
	config := defaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// .env never overrides variables already set in the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := overrideWithEnv(config); err != nil {
		return nil, err
	}
	return config, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Database: DatabaseConfig{
			Port:           5432,
			DBName:         "certificate_portal",
			SSLMode:        "disable",
			MaxConnections: 25,
			MaxIdleConns:   5,
			MaxLifetime:    time.Hour,
		},
		AWS: AWSConfig{
			Region: "sa-east-1",
		},
		Storage: StorageConfig{
			LinkTTL: 15 * time.Minute,
		},
		Email: EmailConfig{
			FromName: "OLEOTRAX",
		},
		Security: SecurityConfig{
			JWTIssuer: "certificate-portal",
		},
		Logging: LoggingConfig{
			Level:       "info",
			Environment: "production",
		},
		Certificate: CertificateConfig{
			TableOrientation: string(certificates.TableVertical),
			EmblemMode:       string(certificates.EmblemLogo),
			LogoPath:         "logo.png",
		},
		Scheduler: SchedulerConfig{
			Schedule: certificates.DefaultRegisterSchedule,
			Timezone: "America/Sao_Paulo",
		},
	}
}

func overrideWithEnv(config *Config) error {
	setString(&config.Server.Host, "SERVER_HOST")
	if err := setInt(&config.Server.Port, "SERVER_PORT"); err != nil {
		return err
	}
	// PORT is what most hosting platforms inject
	if err := setInt(&config.Server.Port, "PORT"); err != nil {
		return err
	}

	setString(&config.Database.Host, "DATABASE_HOST")
	if err := setInt(&config.Database.Port, "DATABASE_PORT"); err != nil {
		return err
	}
	setString(&config.Database.User, "DATABASE_USER")
	setString(&config.Database.Password, "DATABASE_PASSWORD")
	setString(&config.Database.DBName, "DATABASE_DBNAME")
	setString(&config.Database.SSLMode, "DATABASE_SSLMODE")

	setString(&config.AWS.Region, "AWS_REGION")
	setString(&config.AWS.AccessKeyID, "AWS_ACCESS_KEY_ID")
	setString(&config.AWS.SecretAccessKey, "AWS_SECRET_ACCESS_KEY")
	setString(&config.AWS.Endpoint, "AWS_ENDPOINT_URL")

	setString(&config.Storage.Bucket, "S3_BUCKET")
	setString(&config.Storage.LocalDir, "STORAGE_DIR")

	setString(&config.Email.FromAddress, "SES_FROM_ADDRESS")
	setString(&config.Events.TopicARN, "SNS_TOPIC_ARN")

	setString(&config.Security.JWTSecret, "JWT_SECRET")

	setString(&config.Logging.Level, "LOG_LEVEL")
	setString(&config.Logging.Environment, "APP_ENV")

	setString(&config.Certificate.LogoPath, "LOGO_PATH")
	setString(&config.Certificate.TableOrientation, "TABLE_ORIENTATION")
	setString(&config.Certificate.EmblemMode, "EMBLEM_MODE")
	if v := os.Getenv("PACKAGING_BUDGET"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PACKAGING_BUDGET %q: %w", v, err)
		}
		config.Certificate.PackagingBudget = &n
	}

	if v := os.Getenv("REGISTER_SCHEDULE_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid REGISTER_SCHEDULE_ENABLED %q: %w", v, err)
		}
		config.Scheduler.Enabled = enabled
	}
	setString(&config.Scheduler.Schedule, "REGISTER_SCHEDULE")
	if v := os.Getenv("REGISTER_RECIPIENTS"); v != "" {
		config.Scheduler.Recipients = splitList(v)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Layout builds the certificate layout. The horizontal orientation starts
// from its own budgets; explicit budgets override either variant.
func (c CertificateConfig) Layout() (certificates.LayoutConfig, error) {
	orientation, err := certificates.ParseTableOrientation(c.TableOrientation)
	if err != nil {
		return certificates.LayoutConfig{}, err
	}

	layout := certificates.DefaultLayoutConfig()
	if orientation == certificates.TableHorizontal {
		layout = certificates.HorizontalLayoutConfig()
	}

	if c.EmblemMode != "" {
		mode, err := certificates.ParseEmblemMode(c.EmblemMode)
		if err != nil {
			return certificates.LayoutConfig{}, err
		}
		layout.EmblemMode = mode
	}
	if c.PackagingBudget != nil {
		layout.PackagingBudget = *c.PackagingBudget
	}
	if c.CellBudget != nil {
		layout.CellBudget = *c.CellBudget
	}
	layout.LogoPath = c.LogoPath
	if c.Issuer != nil {
		layout.Issuer = *c.Issuer
	}

	if err := layout.Validate(); err != nil {
		return certificates.LayoutConfig{}, err
	}
	return layout, nil
}

// GetDatabaseURL returns the database connection string
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
