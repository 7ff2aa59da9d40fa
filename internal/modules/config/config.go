package config

import (
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"quantum_bot/internal/models"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"
)

// Config ...
type Config struct {
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	DB string `yaml:"db_dsn"`

	Jaeger struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"jaeger"`

	Service struct {
		Host       string `yaml:"host"`
		HealthAddr string `yaml:"health_addr"`
	} `yaml:"service"`

	// Roster: exactly one master, any number of followers.
	Accounts []models.Account `yaml:"accounts"`

	// Scan loop. Durations are env-only (CYCLE_INTERVAL etc): yaml.v2 has no
	// native duration decoding.
	Symbols       []string      `yaml:"symbols"`
	Timeframe     string        `yaml:"timeframe"`
	Lookback      int           `yaml:"lookback"`    // bars fetched per symbol per cycle
	CycleInterval time.Duration `yaml:"-"`           // tick-to-tick, drift corrected
	ScanFanout    int           `yaml:"scan_fanout"` // concurrent symbols per cycle

	// Scanner
	DonchianPeriod int     `yaml:"donchian_period"`
	TrendEmaPeriod int     `yaml:"trend_ema_period"`
	ATRPeriod      int     `yaml:"atr_period"`
	StopATR        float64 `yaml:"stop_atr"`
	TakeProfitRR   float64 `yaml:"take_profit_rr"`
	MinConfidence  float64 `yaml:"min_confidence"`

	// Dispatch
	MaxRetries  int           `yaml:"max_retries"`
	Backoff     time.Duration `yaml:"-"`
	CallTimeout time.Duration `yaml:"-"`

	// Supervisor
	ModuleStopTimeout time.Duration `yaml:"-"`

	// Shadow / paper
	PaperStartBalance float64 `yaml:"paper_start_balance"`
	ShadowRisk        float64 `yaml:"shadow_risk"`

	// Anomaly detector tick stream; empty disables the stream
	StreamURL string `yaml:"stream_url"`

	// Final CycleResult history written here on shutdown
	ExportPath string `yaml:"export_path"`
}

func NewConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("TIMEFRAME", "15m")
	v.SetDefault("LOOKBACK", 120)
	v.SetDefault("CYCLE_INTERVAL", "30s")
	v.SetDefault("SCAN_FANOUT", 4)
	v.SetDefault("MAX_RETRIES", 3)
	v.SetDefault("BACKOFF", "500ms")
	v.SetDefault("CALL_TIMEOUT", "5s")
	v.SetDefault("MODULE_STOP_TIMEOUT", "5s")
	v.SetDefault("PAPER_START_BALANCE", 10_000.0)
	v.SetDefault("SHADOW_RISK", 0.01)
	v.SetDefault("EXPORT_PATH", "results.json")
	v.SetDefault("HEALTH_ADDR", ":8080")

	config := Config{
		Timeframe:     v.GetString("TIMEFRAME"),
		Lookback:      v.GetInt("LOOKBACK"),
		CycleInterval: v.GetDuration("CYCLE_INTERVAL"),
		ScanFanout:    v.GetInt("SCAN_FANOUT"),

		DonchianPeriod: 20,
		TrendEmaPeriod: 50,
		ATRPeriod:      14,
		StopATR:        1.5,
		TakeProfitRR:   3.0,
		MinConfidence:  40,

		MaxRetries:  v.GetInt("MAX_RETRIES"),
		Backoff:     v.GetDuration("BACKOFF"),
		CallTimeout: v.GetDuration("CALL_TIMEOUT"),

		ModuleStopTimeout: v.GetDuration("MODULE_STOP_TIMEOUT"),
		PaperStartBalance: v.GetFloat64("PAPER_START_BALANCE"),
		ShadowRisk:        v.GetFloat64("SHADOW_RISK"),
		ExportPath:        v.GetString("EXPORT_PATH"),
	}
	config.Service.HealthAddr = v.GetString("HEALTH_ADDR")

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err != nil {
		log.Fatalf("Failed to open config file: %v", err)
	}

	defer func() {
		_ = file.Close()
	}()

	decoder := yaml.NewDecoder(file)
	err = decoder.Decode(&config)
	if err != nil {
		log.Fatalf("Failed to decode config file: %v", err)
	}

	token := os.Getenv(tokenTelegramENV)
	if token != "" {
		config.Telegram.Token = token
	}

	dsn := os.Getenv(databaseDSN)
	if dsn != "" {
		config.DB = dsn
	}

	return &config, nil
}
