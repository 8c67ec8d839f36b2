package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

type Config struct {
	DataDir string
	DBPath  string
	KVDir   string

	APIBase string
	Storage string

	LogLevel string
	LogJSON  bool

	HTTPAddr       string
	AllowedOrigins []string

	CatalogTimeout   time.Duration
	CatalogSyncEvery time.Duration

	JournalEnabled bool
}

// New resolves configuration for dataDir. Sources in priority order:
// MATHBOT_* environment (after loading <data>/.env), <data>/mathbot.yaml, defaults.
func New(dataDir string) (Config, error) {
	if strings.TrimSpace(dataDir) == "" {
		return Config{}, fmt.Errorf("data path is required")
	}

	dotEnvPath := filepath.Join(dataDir, ".env")
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("stat %s: %w", dotEnvPath, err)
	}

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetDefault("api_base", "http://127.0.0.1:8000")
	v.SetDefault("storage", StorageFile)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("http.addr", "127.0.0.1:8787")
	v.SetDefault("http.allowed_origins", []string{"*"})
	v.SetDefault("catalog.timeout", time.Duration(0))
	v.SetDefault("catalog.sync_every", 30*time.Minute)
	v.SetDefault("journal.enabled", true)

	v.SetEnvPrefix("MATHBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("mathbot")
	v.SetConfigType("yaml")
	v.AddConfigPath(dataDir)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	storage := strings.ToLower(strings.TrimSpace(v.GetString("storage")))
	switch storage {
	case StorageFile, StorageSQLite:
	default:
		return Config{}, fmt.Errorf("unknown storage %q: want %s or %s", storage, StorageFile, StorageSQLite)
	}

	return Config{
		DataDir:          dataDir,
		DBPath:           filepath.Join(dataDir, ".mathbot", "mathbot.db"),
		KVDir:            filepath.Join(dataDir, ".mathbot", "kv"),
		APIBase:          strings.TrimRight(strings.TrimSpace(v.GetString("api_base")), "/"),
		Storage:          storage,
		LogLevel:         v.GetString("log.level"),
		LogJSON:          v.GetBool("log.json"),
		HTTPAddr:         v.GetString("http.addr"),
		AllowedOrigins:   v.GetStringSlice("http.allowed_origins"),
		CatalogTimeout:   v.GetDuration("catalog.timeout"),
		CatalogSyncEvery: v.GetDuration("catalog.sync_every"),
		JournalEnabled:   v.GetBool("journal.enabled"),
	}, nil
}
