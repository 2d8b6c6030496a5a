package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ErrMissingCredential se devuelve cuando falta el token del bot.
var ErrMissingCredential = errors.New("missing credential")

// Config es la configuración completa del bot.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Scanner  ScannerConfig  `yaml:"scanner"`
	P2P      P2PConfig      `yaml:"p2p"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// TelegramConfig contiene las credenciales del bot.
type TelegramConfig struct {
	Token        string  `yaml:"token"`         // normalmente vía BOT_TOKEN en .env
	AllowedUsers []int64 `yaml:"allowed_users"` // vacío = sin restricción
}

// ScannerConfig controla el loop de escaneo.
type ScannerConfig struct {
	IntervalSeconds int    `yaml:"interval_seconds"`
	TargetYield     string `yaml:"target_yield"` // spread mínimo en fiat, ej. "0.01"
	Autostart       bool   `yaml:"autostart"`
}

// P2PConfig describe el par consultado en el marketplace.
type P2PConfig struct {
	BaseURL        string `yaml:"base_url"`
	Asset          string `yaml:"asset"`
	Fiat           string `yaml:"fiat"`
	Rows           int    `yaml:"rows"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// StorageConfig controla dónde se persisten los trades.
type StorageConfig struct {
	Driver string `yaml:"driver"` // json | sqlite | buntdb
	Path   string `yaml:"path"`   // archivo del ledger, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Si el YAML no existe se usan los defaults; las variables de entorno pisan al YAML.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if _, err := decimal.NewFromString(cfg.Scanner.TargetYield); err != nil {
		return nil, fmt.Errorf("config.Load: target_yield %q: %w", cfg.Scanner.TargetYield, err)
	}

	return &cfg, nil
}

// Validate comprueba las precondiciones para arrancar el bot de Telegram.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return fmt.Errorf("config.Validate: BOT_TOKEN: %w", ErrMissingCredential)
	}
	return nil
}

// ScanInterval devuelve el intervalo de escaneo como time.Duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Scanner.IntervalSeconds) * time.Second
}

// Threshold devuelve el spread mínimo. Load ya validó el valor.
func (c *Config) Threshold() decimal.Decimal {
	return decimal.RequireFromString(c.Scanner.TargetYield)
}

// RequestTimeout devuelve el timeout por consulta al marketplace.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.P2P.TimeoutSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("ALLOWED_USERS"); v != "" {
		cfg.Telegram.AllowedUsers = parseIDs(v)
	}
	if v := os.Getenv("P2P_ASSET"); v != "" {
		cfg.P2P.Asset = v
	}
	if v := os.Getenv("P2P_FIAT"); v != "" {
		cfg.P2P.Fiat = v
	}
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// parseIDs lee una lista separada por comas; ignora lo que no sea entero.
func parseIDs(v string) []int64 {
	var ids []int64
	for _, part := range strings.Split(v, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

var defaultPaths = map[string]string{
	"json":   "trades.json",
	"sqlite": "trades.db",
	"buntdb": "trades.buntdb",
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Scanner.IntervalSeconds <= 0 {
		cfg.Scanner.IntervalSeconds = 60
	}
	if cfg.Scanner.TargetYield == "" {
		cfg.Scanner.TargetYield = "0.01"
	}
	if cfg.P2P.BaseURL == "" {
		cfg.P2P.BaseURL = "https://p2p.binance.com"
	}
	if cfg.P2P.Asset == "" {
		cfg.P2P.Asset = "USDT"
	}
	if cfg.P2P.Fiat == "" {
		cfg.P2P.Fiat = "AZN"
	}
	if cfg.P2P.Rows <= 0 {
		cfg.P2P.Rows = 5
	}
	if cfg.P2P.TimeoutSeconds <= 0 {
		cfg.P2P.TimeoutSeconds = 10
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "json"
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = defaultPaths[cfg.Storage.Driver]
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
