package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	App struct {
		Env      string
		Timezone string
		LogLevel string `mapstructure:"log_level"`
	} `mapstructure:"app"`

	Postgres struct {
		DSN      string
		Host     string
		Port     int
		User     string
		Password string
		Database string
		SSLMode  string `mapstructure:"sslmode"`
	} `mapstructure:"postgres"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Telegram struct {
		Token       string
		AdminChatID int64 `mapstructure:"admin_chat_id"`
		TimeoutSec  int   `mapstructure:"timeout_sec"`

		// AllowedChatIDs: чаты, которым бот отвечает, помимо админского.
		AllowedChatIDs []int64 `mapstructure:"allowed_chat_ids"`
	} `mapstructure:"telegram"`

	Sales struct {
		// RequireCustomer отклоняет продажу, если покупателя с таким id нет.
		RequireCustomer bool `mapstructure:"require_customer"`
	} `mapstructure:"sales"`

	Reports struct {
		LowStockThreshold int `mapstructure:"low_stock_threshold"`
	} `mapstructure:"reports"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "prod")
	v.SetDefault("app.timezone", "Local")
	v.SetDefault("app.log_level", "")
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.database", "building_materials")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_chat_id", 0)
	v.SetDefault("telegram.allowed_chat_ids", []int64{})
	v.SetDefault("telegram.timeout_sec", 30)
	v.SetDefault("sales.require_customer", false)
	v.SetDefault("reports.low_stock_threshold", 20)
}

// Load читает YAML-конфиг (если path не пустой) и переопределения из ENV
// вида APP_POSTGRES_DSN. Файл .env в рабочем каталоге подхватывается, если есть.
func Load(path string) (Config, error) {
	_ = gotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return c, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

func (c Config) Validate() error {
	if c.Postgres.DSN == "" && c.Postgres.Host == "" {
		return errors.New("config: postgres.dsn or postgres.host is required")
	}
	if c.Reports.LowStockThreshold < 0 {
		return errors.New("config: reports.low_stock_threshold must be >= 0")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("config: app.timezone: %w", err)
	}
	return nil
}

// DSN возвращает postgres.dsn либо собирает его из отдельных полей.
func (c Config) DSN() string {
	if c.Postgres.DSN != "" {
		return c.Postgres.DSN
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", c.Postgres.Host, c.Postgres.Port),
		Path:   "/" + c.Postgres.Database,
	}
	if c.Postgres.Password != "" {
		u.User = url.UserPassword(c.Postgres.User, c.Postgres.Password)
	} else {
		u.User = url.User(c.Postgres.User)
	}
	if c.Postgres.SSLMode != "" {
		u.RawQuery = "sslmode=" + url.QueryEscape(c.Postgres.SSLMode)
	}
	return u.String()
}

func (c Config) Location() (*time.Location, error) {
	if c.App.Timezone == "" || c.App.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.App.Timezone)
}
