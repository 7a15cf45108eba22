package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"chartink-gateway/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  logging.Config `mapstructure:"logging"`
	Server   ServerConfig   `mapstructure:"server"`
	Alerts   AlertsConfig   `mapstructure:"alerts"`
	Database DatabaseConfig `mapstructure:"database"`
	Trading  TradingConfig  `mapstructure:"trading"`
	Quotes   QuotesConfig   `mapstructure:"quotes"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig governs the HTTP listener.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// AlertsConfig controls the alert journal sink.
type AlertsConfig struct {
	LogPath string `mapstructure:"log_path"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// TradingConfig covers broker connectivity and order sizing.
type TradingConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	BaseURL         string        `mapstructure:"base_url"`
	ClientID        string        `mapstructure:"client_id"`
	AppIDHash       string        `mapstructure:"app_id_hash"`
	AccessToken     string        `mapstructure:"access_token"`
	RefreshToken    string        `mapstructure:"refresh_token"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	Sizing          SizingConfig  `mapstructure:"sizing"`
}

// SizingConfig 描述按价格分档的下单数量规则。
type SizingConfig struct {
	LowPriceLimit float64 `mapstructure:"low_price_limit"`
	MidPriceLimit float64 `mapstructure:"mid_price_limit"`
	LowQty        int     `mapstructure:"low_qty"`
	HighQty       int     `mapstructure:"high_qty"`
}

// QuotesConfig captures market data access.
type QuotesConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Simulate       bool          `mapstructure:"simulate"`
}

// MonitorConfig governs the exit monitor loop.
type MonitorConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	StopLossPct     float64       `mapstructure:"stop_loss_pct"`
	TargetPct       float64       `mapstructure:"target_pct"`
	Workers         int           `mapstructure:"workers"`
	PerformancePath string        `mapstructure:"performance_path"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	// A local .env file feeds AutomaticEnv the same way exported vars do.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CHARTINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindAliases(v)
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// bindAliases keeps the bare variable names used by hosted deployments working
// alongside the CHARTINK_* forms.
func bindAliases(v *viper.Viper) {
	_ = v.BindEnv("server.port", "CHARTINK_SERVER_PORT", "PORT")
	_ = v.BindEnv("database.dsn", "CHARTINK_DATABASE_DSN", "DATABASE_URL")
	_ = v.BindEnv("trading.client_id", "CHARTINK_TRADING_CLIENT_ID", "FYERS_CLIENT_ID")
	_ = v.BindEnv("trading.app_id_hash", "CHARTINK_TRADING_APP_ID_HASH", "FYERS_CLIENT_SECRET")
	_ = v.BindEnv("trading.access_token", "CHARTINK_TRADING_ACCESS_TOKEN", "FYERS_ACCESS_TOKEN")
	_ = v.BindEnv("trading.refresh_token", "CHARTINK_TRADING_REFRESH_TOKEN", "FYERS_REFRESH_TOKEN")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "chartink-gateway")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("alerts.log_path", "data/alerts.log")

	v.SetDefault("trading.enabled", false)
	v.SetDefault("trading.base_url", "https://api-t1.fyers.in/api/v3")
	v.SetDefault("trading.refresh_interval", "23h")
	v.SetDefault("trading.request_timeout", "10s")
	v.SetDefault("trading.sizing.low_price_limit", 200.0)
	v.SetDefault("trading.sizing.mid_price_limit", 600.0)
	v.SetDefault("trading.sizing.low_qty", 10)
	v.SetDefault("trading.sizing.high_qty", 5)

	v.SetDefault("quotes.simulate", true)
	v.SetDefault("quotes.request_timeout", "10s")

	v.SetDefault("monitor.interval", "60s")
	v.SetDefault("monitor.stop_loss_pct", -0.5)
	v.SetDefault("monitor.target_pct", 4.0)
	v.SetDefault("monitor.workers", 20)
	v.SetDefault("monitor.performance_path", "data/monitor_perf.log")

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Alerts.LogPath == "" {
		return fmt.Errorf("alerts.log_path must not be empty")
	}
	if c.Monitor.Interval <= 0 {
		return fmt.Errorf("monitor.interval must be greater than zero")
	}
	if c.Monitor.Workers <= 0 {
		return fmt.Errorf("monitor.workers must be greater than zero")
	}
	if c.Monitor.StopLossPct >= c.Monitor.TargetPct {
		return fmt.Errorf("monitor.stop_loss_pct must be below monitor.target_pct")
	}
	if s := c.Trading.Sizing; s.LowPriceLimit <= 0 || s.MidPriceLimit < s.LowPriceLimit {
		return fmt.Errorf("trading.sizing price limits must be positive and ordered")
	}
	if s := c.Trading.Sizing; s.LowQty <= 0 || s.HighQty <= 0 {
		return fmt.Errorf("trading.sizing quantities must be greater than zero")
	}
	if c.Trading.Enabled {
		if c.Trading.ClientID == "" {
			return fmt.Errorf("trading.client_id 必须配置")
		}
		if c.Trading.AccessToken == "" {
			return fmt.Errorf("trading.access_token 必须配置")
		}
		if c.Trading.RefreshInterval <= 0 {
			return fmt.Errorf("trading.refresh_interval must be greater than zero")
		}
	}
	if !c.Quotes.Simulate && c.Quotes.BaseURL == "" {
		return fmt.Errorf("quotes.base_url is required when quotes.simulate is off")
	}
	return nil
}

// ResolvePort returns either the CLI override or the configured port.
func (c *Config) ResolvePort(override int) int {
	if override > 0 {
		return override
	}
	return c.Server.Port
}

// ResolveAlertLog returns either the CLI override or the configured journal path.
func (c *Config) ResolveAlertLog(override string) string {
	if override != "" {
		return override
	}
	return c.Alerts.LogPath
}
