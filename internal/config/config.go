package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/nurpe/autoservice-offers/internal/model"
)

type HTTPConfig struct {
	Host               string
	Port               int
	CORSAllowedOrigins []string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

type AuthConfig struct {
	AccessSecret string
}

type PDFConfig struct {
	FontFamily      string
	FontRegularPath string
	FontBoldPath    string
}

type OffersConfig struct {
	Timezone    string
	Location    *time.Location
	PhoneRegion string
}

type Config struct {
	Environment string
	LogLevel    string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	PDF         PDFConfig
	Offers      OffersConfig
	Company     model.Issuer
}

func Load() (*Config, error) {
	// .env is optional; values already in the environment win.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HTTP_HOST", "0.0.0.0")
	v.SetDefault("HTTP_PORT", 7090)
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("OFFERS_TIMEZONE", "Europe/Sofia")
	v.SetDefault("OFFERS_PHONE_REGION", "BG")

	_ = v.ReadInConfig()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Environment: strings.TrimSpace(v.GetString("APP_ENV")),
		LogLevel:    strings.TrimSpace(v.GetString("LOG_LEVEL")),
		HTTP: HTTPConfig{
			Host:               v.GetString("HTTP_HOST"),
			Port:               v.GetInt("HTTP_PORT"),
			CORSAllowedOrigins: parseList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			DSN:          v.GetString("DB_DSN"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
			AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		PDF: PDFConfig{
			FontFamily:      strings.TrimSpace(v.GetString("PDF_FONT_FAMILY")),
			FontRegularPath: strings.TrimSpace(v.GetString("PDF_FONT_REGULAR_PATH")),
			FontBoldPath:    strings.TrimSpace(v.GetString("PDF_FONT_BOLD_PATH")),
		},
		Offers: OffersConfig{
			Timezone:    strings.TrimSpace(v.GetString("OFFERS_TIMEZONE")),
			PhoneRegion: strings.ToUpper(strings.TrimSpace(v.GetString("OFFERS_PHONE_REGION"))),
		},
		Company: model.Issuer{
			Name:           strings.TrimSpace(v.GetString("COMPANY_NAME")),
			Address:        strings.TrimSpace(v.GetString("COMPANY_ADDRESS")),
			Phone:          strings.TrimSpace(v.GetString("COMPANY_PHONE")),
			Email:          strings.TrimSpace(v.GetString("COMPANY_EMAIL")),
			RegistrationNo: strings.TrimSpace(v.GetString("COMPANY_REGISTRATION_NO")),
			VATNo:          strings.TrimSpace(v.GetString("COMPANY_VAT_NO")),
			IssueLocation:  strings.TrimSpace(v.GetString("COMPANY_ISSUE_LOCATION")),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if cfg.Offers.PhoneRegion == "" {
		cfg.Offers.PhoneRegion = "BG"
	}

	lifetime, err := parseDuration(v.GetString("DB_CONN_MAX_LIFETIME"))
	if err != nil {
		return nil, fmt.Errorf("DB_CONN_MAX_LIFETIME: %w", err)
	}
	cfg.DB.ConnMaxLifetime = lifetime

	location, err := loadLocation(cfg.Offers.Timezone)
	if err != nil {
		return nil, fmt.Errorf("OFFERS_TIMEZONE: %w", err)
	}
	cfg.Offers.Location = location

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.HTTP.Port < 0 || cfg.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP_PORT %d is out of range", cfg.HTTP.Port)
	}
	if cfg.PDF.FontFamily != "" && cfg.PDF.FontRegularPath == "" {
		return fmt.Errorf("PDF_FONT_REGULAR_PATH is required when PDF_FONT_FAMILY is set")
	}
	if len(cfg.Offers.PhoneRegion) != 2 {
		return fmt.Errorf("OFFERS_PHONE_REGION must be a two-letter region code")
	}
	return nil
}

func parseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return time.ParseDuration(raw)
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
