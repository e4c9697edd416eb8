package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	emailENV          = "EMAIL"
	passwordENV       = "PASSWORD"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	chatIDTelegramENV = "TELEGRAM_CHAT_ID"
	databaseDSN       = "DATABASE_DSN"
)

// Config — все настройки сессии. Читается один раз на старте,
// дальше по коду гуляет только для чтения.
type Config struct {
	Email       string   `yaml:"email"`
	Password    string   `yaml:"password"`
	AccountType string   `yaml:"account_type"` // PRACTICE | REAL
	Instruments []string `yaml:"instruments"`  // порядок скана = порядок в списке

	TimeframeMainSeconds  int     `yaml:"timeframe_main_seconds"`
	CandleCount           int     `yaml:"candle_count"`
	MinPayout             float64 `yaml:"min_payout"`
	MaxPayout             float64 `yaml:"max_payout"`
	MAFast                int     `yaml:"ma_fast"`
	MASlow                int     `yaml:"ma_slow"`
	VolumePeriod          int     `yaml:"volume_period"`
	DailyWinCap           int     `yaml:"daily_win_cap"`
	BaseCycleSleepSeconds int     `yaml:"base_cycle_sleep_seconds"`
	ExpiryMinutes         int     `yaml:"expiry_minutes"`
	NewsPauseSeconds      int     `yaml:"news_pause_seconds"`
	DailyStopPauseSeconds int     `yaml:"daily_stop_pause_seconds"`

	Broker struct {
		RestURL               string `yaml:"rest_url"`
		WsURL                 string `yaml:"ws_url"`
		RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
		OutcomeGraceSeconds   int    `yaml:"outcome_grace_seconds"`
	} `yaml:"broker"`

	Risk struct {
		BaseAmount                float64 `yaml:"base_amount"`
		Strategy                  string  `yaml:"strategy"` // fixed | martingale | soros
		MartingaleFactor          float64 `yaml:"martingale_factor"`
		SorosLevel                int     `yaml:"soros_level"`
		UseMartingaleIfHighChance bool    `yaml:"use_martingale_if_high_chance"`
		UseSorosIfLowPayout       bool    `yaml:"use_soros_if_low_payout"`
		MinPayoutForSoros         float64 `yaml:"min_payout_for_soros"`
		StopLossAmount            float64 `yaml:"stop_loss_amount"`
		StopLossConsecutive       int     `yaml:"stop_loss_consecutive"`
		StopWinAmount             float64 `yaml:"stop_win_amount"`
		StopWinVictories          int     `yaml:"stop_win_victories"`
	} `yaml:"risk"`

	Predictor struct {
		Threshold    float64 `yaml:"threshold"`
		MinSamples   int     `yaml:"min_samples"`
		LookbackDays int     `yaml:"lookback_days"`
	} `yaml:"predictor"`

	News struct {
		CalendarURL   string   `yaml:"calendar_url"`
		BufferMinutes int      `yaml:"buffer_minutes"`
		CacheMinutes  int      `yaml:"cache_minutes"`
		Currencies    []string `yaml:"currencies"` // пусто = все валюты
	} `yaml:"news"`

	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	DB string `yaml:"db_dsn"` // пусто = журнал в памяти

	Health struct {
		Addr string `yaml:"addr"`
	} `yaml:"health"`

	Tracing struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"tracing"`
}

func NewConfig() (*Config, error) {
	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	config := defaults()
	decoder := yaml.NewDecoder(file)
	if err = decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("decode config file: %w", err)
	}

	applyEnv(config)

	if err = config.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", configFileName, err)
	}

	return config, nil
}

func defaults() *Config {
	c := &Config{
		AccountType:           "PRACTICE",
		TimeframeMainSeconds:  60,
		CandleCount:           100,
		MinPayout:             0.70,
		MaxPayout:             0.95,
		MAFast:                5,
		MASlow:                20,
		VolumePeriod:          20,
		DailyWinCap:           3,
		BaseCycleSleepSeconds: 60,
		ExpiryMinutes:         1,
		NewsPauseSeconds:      60,
		DailyStopPauseSeconds: 3600,
	}
	c.Broker.RequestTimeoutSeconds = 30
	c.Broker.OutcomeGraceSeconds = 120
	c.Risk.BaseAmount = 2.0
	c.Risk.Strategy = "fixed"
	c.Risk.MartingaleFactor = 2.0
	c.Risk.SorosLevel = 2
	c.Risk.MinPayoutForSoros = 0.80
	c.Risk.StopLossAmount = 50
	c.Risk.StopLossConsecutive = 3
	c.Risk.StopWinAmount = 100
	c.Risk.StopWinVictories = 5
	c.Predictor.Threshold = 0.55
	c.Predictor.MinSamples = 50
	c.Predictor.LookbackDays = 30
	c.News.BufferMinutes = 30
	c.News.CacheMinutes = 15
	c.Health.Addr = ":8080"
	c.Tracing.Host = "127.0.0.1"
	c.Tracing.Port = 6831
	return c
}

// секреты берём из окружения поверх yaml, чтобы файл можно было коммитить
func applyEnv(c *Config) {
	if v := os.Getenv(emailENV); v != "" {
		c.Email = v
	}
	if v := os.Getenv(passwordENV); v != "" {
		c.Password = v
	}
	if v := os.Getenv(tokenTelegramENV); v != "" {
		c.Telegram.Token = v
	}
	if v := int64FromEnv(chatIDTelegramENV, 0); v != 0 {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv(databaseDSN); v != "" {
		c.DB = v
	}
}

// Validate отбраковывает конфиг до старта цикла: лучше упасть на старте,
// чем торговать с кривыми порогами.
func (c *Config) Validate() error {
	if c.Email == "" {
		return fmt.Errorf("email is required")
	}
	if c.Password == "" {
		return fmt.Errorf("password is required")
	}
	switch strings.ToUpper(c.AccountType) {
	case "PRACTICE", "REAL":
		c.AccountType = strings.ToUpper(c.AccountType)
	default:
		return fmt.Errorf("account_type %q: want PRACTICE or REAL", c.AccountType)
	}
	if len(c.Instruments) == 0 {
		return fmt.Errorf("instruments list is empty")
	}
	for _, inst := range c.Instruments {
		if strings.TrimSpace(inst) == "" {
			return fmt.Errorf("instruments list contains an empty name")
		}
	}
	if c.TimeframeMainSeconds <= 0 {
		return fmt.Errorf("timeframe_main_seconds must be positive, got %d", c.TimeframeMainSeconds)
	}
	if c.CandleCount <= 0 {
		return fmt.Errorf("candle_count must be positive, got %d", c.CandleCount)
	}
	if c.MinPayout < 0 || c.MaxPayout > 1 {
		return fmt.Errorf("payout band [%v, %v] must stay within [0, 1]", c.MinPayout, c.MaxPayout)
	}
	if c.MinPayout > c.MaxPayout {
		return fmt.Errorf("min_payout %v greater than max_payout %v", c.MinPayout, c.MaxPayout)
	}
	if c.MAFast <= 0 || c.MASlow <= 0 {
		return fmt.Errorf("ma periods must be positive, got fast=%d slow=%d", c.MAFast, c.MASlow)
	}
	if c.MAFast >= c.MASlow {
		return fmt.Errorf("ma_fast %d must be shorter than ma_slow %d", c.MAFast, c.MASlow)
	}
	if c.VolumePeriod <= 0 {
		return fmt.Errorf("volume_period must be positive, got %d", c.VolumePeriod)
	}
	if c.DailyWinCap <= 0 {
		return fmt.Errorf("daily_win_cap must be positive, got %d", c.DailyWinCap)
	}
	if c.BaseCycleSleepSeconds <= 0 || c.NewsPauseSeconds <= 0 || c.DailyStopPauseSeconds <= 0 {
		return fmt.Errorf("sleep intervals must be positive")
	}
	if c.ExpiryMinutes <= 0 {
		return fmt.Errorf("expiry_minutes must be positive, got %d", c.ExpiryMinutes)
	}
	if c.Broker.RestURL == "" || c.Broker.WsURL == "" {
		return fmt.Errorf("broker rest_url and ws_url are required")
	}
	if c.Broker.RequestTimeoutSeconds <= 0 || c.Broker.OutcomeGraceSeconds <= 0 {
		return fmt.Errorf("broker timeouts must be positive")
	}
	switch c.Risk.Strategy {
	case "fixed", "martingale", "soros":
	default:
		return fmt.Errorf("risk.strategy %q: want fixed, martingale or soros", c.Risk.Strategy)
	}
	if c.Risk.BaseAmount <= 0 {
		return fmt.Errorf("risk.base_amount must be positive, got %v", c.Risk.BaseAmount)
	}
	if c.Risk.MartingaleFactor < 1 {
		return fmt.Errorf("risk.martingale_factor must be >= 1, got %v", c.Risk.MartingaleFactor)
	}
	if c.Risk.SorosLevel < 0 {
		return fmt.Errorf("risk.soros_level must be >= 0, got %d", c.Risk.SorosLevel)
	}
	if c.Risk.MinPayoutForSoros < 0 || c.Risk.MinPayoutForSoros > 1 {
		return fmt.Errorf("risk.min_payout_for_soros must be in [0, 1], got %v", c.Risk.MinPayoutForSoros)
	}
	if c.Risk.StopLossAmount < 0 || c.Risk.StopWinAmount < 0 {
		return fmt.Errorf("risk stop amounts must be non-negative")
	}
	if c.Risk.StopLossConsecutive < 0 || c.Risk.StopWinVictories < 0 {
		return fmt.Errorf("risk stop counters must be non-negative")
	}
	if c.Predictor.Threshold <= 0 || c.Predictor.Threshold >= 1 {
		return fmt.Errorf("predictor.threshold must be in (0, 1), got %v", c.Predictor.Threshold)
	}
	if c.Predictor.MinSamples < 0 || c.Predictor.LookbackDays <= 0 {
		return fmt.Errorf("predictor sample settings out of range")
	}
	if c.News.CalendarURL != "" && c.News.BufferMinutes < 0 {
		return fmt.Errorf("news.buffer_minutes must be non-negative, got %d", c.News.BufferMinutes)
	}
	if c.News.CacheMinutes < 0 {
		return fmt.Errorf("news.cache_minutes must be non-negative, got %d", c.News.CacheMinutes)
	}
	return nil
}

func (c *Config) BaseCycleSleep() time.Duration { return seconds(c.BaseCycleSleepSeconds) }
func (c *Config) NewsPause() time.Duration      { return seconds(c.NewsPauseSeconds) }
func (c *Config) DailyStopPause() time.Duration { return seconds(c.DailyStopPauseSeconds) }
func (c *Config) RequestTimeout() time.Duration { return seconds(c.Broker.RequestTimeoutSeconds) }
func (c *Config) OutcomeGrace() time.Duration   { return seconds(c.Broker.OutcomeGraceSeconds) }
func (c *Config) NewsBuffer() time.Duration     { return time.Duration(c.News.BufferMinutes) * time.Minute }
func (c *Config) NewsCacheTTL() time.Duration   { return time.Duration(c.News.CacheMinutes) * time.Minute }
func (c *Config) Expiry() time.Duration         { return time.Duration(c.ExpiryMinutes) * time.Minute }

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func int64FromEnv(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}
