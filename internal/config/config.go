package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	DefaultSymbol      = "BTCUSDT"
	DefaultQuantity    = "0.001"
	DefaultLogLevel    = "INFO"
	DefaultLogFile     = "logs/trading_bot.log"
	DefaultJournalFile = "logs/orders.json"
)

type Config struct {
	// Binance API
	BinanceApiKey    string
	BinanceSecretKey string
	Testnet          bool
	BaseURL          string // overrides the testnet/mainnet endpoint when set

	// CLI defaults
	DefaultSymbol   string
	DefaultQuantity decimal.Decimal

	// Logging
	LogLevel         string
	LogFile          string
	OrderJournalFile string

	// Telegram
	TelegramToken  string
	TelegramChatID string
}

// Load reads the given env files (".env" when none are given) into the
// process environment and builds a Config from it. Missing files are not an
// error; variables already set in the environment win.
func Load(filenames ...string) (*Config, error) {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, name := range filenames {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error loading %s: %w", name, err)
		}
	}

	cfg := &Config{}
	var err error

	cfg.BinanceApiKey = os.Getenv("BINANCE_API_KEY")
	cfg.BinanceSecretKey = os.Getenv("BINANCE_API_SECRET")
	cfg.BaseURL = os.Getenv("BINANCE_BASE_URL")

	cfg.Testnet = true
	if val := os.Getenv("BINANCE_TESTNET"); val != "" {
		cfg.Testnet, err = parseBool(val, "BINANCE_TESTNET")
		if err != nil {
			return nil, err
		}
	}

	cfg.DefaultSymbol = strings.ToUpper(envOr("DEFAULT_SYMBOL", DefaultSymbol))
	cfg.DefaultQuantity, err = parseDecimal(envOr("DEFAULT_QUANTITY", DefaultQuantity), "DEFAULT_QUANTITY")
	if err != nil {
		return nil, err
	}
	if !cfg.DefaultQuantity.IsPositive() {
		return nil, fmt.Errorf("invalid value for DEFAULT_QUANTITY: must be positive")
	}

	cfg.LogLevel = strings.ToUpper(envOr("LOG_LEVEL", DefaultLogLevel))
	switch cfg.LogLevel {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		return nil, fmt.Errorf("invalid value for LOG_LEVEL: %q", cfg.LogLevel)
	}
	cfg.LogFile = envOr("LOG_FILE", DefaultLogFile)
	cfg.OrderJournalFile = envOr("ORDER_JOURNAL_FILE", DefaultJournalFile)

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	cfg.TelegramChatID = os.Getenv("TELEGRAM_CHAT_ID")

	return cfg, nil
}

// Validate reports missing credentials. It is separate from Load so the CLI
// can prompt for whatever is missing first.
func (c *Config) Validate() error {
	if c.BinanceApiKey == "" {
		return fmt.Errorf("BINANCE_API_KEY is required")
	}
	if c.BinanceSecretKey == "" {
		return fmt.Errorf("BINANCE_API_SECRET is required")
	}
	return nil
}

func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != ""
}

// UpdateEnvVariable sets key in the env file at path, creating the file if
// needed.
func UpdateEnvVariable(path, key, value string) error {
	envMap, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error reading %s: %w", path, err)
		}
		envMap = map[string]string{}
	}

	envMap[key] = value

	if err := godotenv.Write(envMap, path); err != nil {
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseBool(value, name string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid value for %s: %w", name, err)
	}
	return b, nil
}

func parseDecimal(value, name string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, fmt.Errorf("%s is required", name)
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid value for %s: %w", name, err)
	}
	return d, nil
}
