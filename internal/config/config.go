package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env            string        `mapstructure:"ENV"`
	Port           string        `mapstructure:"PORT"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	AdminKey       string        `mapstructure:"ADMIN_KEY"`
	CORSAllowed    string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`

	// settings store: postgres, redis or memory
	SettingsStore    string        `mapstructure:"SETTINGS_STORE"`
	SettingsCacheTTL time.Duration `mapstructure:"SETTINGS_CACHE_TTL"`
	RedisAddr        string        `mapstructure:"REDIS_ADDR"`
	RedisPassword    string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB          int           `mapstructure:"REDIS_DB"`

	AIProvider    string        `mapstructure:"AI_PROVIDER"`
	AIAPIKey      string        `mapstructure:"AI_API_KEY"`
	AIModel       string        `mapstructure:"AI_MODEL"`
	AIBaseURL     string        `mapstructure:"AI_BASE_URL"`
	AITimeout     time.Duration `mapstructure:"AI_TIMEOUT"`
	AIRateLimit   float64       `mapstructure:"AI_RATE_LIMIT_RPS"`
	AIRateBurst   int           `mapstructure:"AI_RATE_BURST"`
	AnalysisMode  string        `mapstructure:"ANALYSIS_MODE"`
	AnalysisDelay time.Duration `mapstructure:"ANALYSIS_DELAY"`
	AnalysisJobs  int           `mapstructure:"ANALYSIS_WORKERS"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()
	return load(v)
}

func load(v *viper.Viper) (Config, error) {
	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("SETTINGS_STORE", "postgres")
	v.SetDefault("SETTINGS_CACHE_TTL", "5s")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("AI_PROVIDER", "openai")
	v.SetDefault("AI_TIMEOUT", "20s")
	v.SetDefault("AI_RATE_LIMIT_RPS", 0)
	v.SetDefault("AI_RATE_BURST", 5)
	v.SetDefault("ANALYSIS_MODE", "async")
	v.SetDefault("ANALYSIS_DELAY", "100ms")
	v.SetDefault("ANALYSIS_WORKERS", 4)

	// AutomaticEnv only resolves keys viper already knows about; bind the
	// ones without defaults so Unmarshal sees them.
	for _, key := range []string{"DATABASE_URL", "ADMIN_KEY", "REDIS_PASSWORD", "AI_API_KEY", "AI_MODEL", "AI_BASE_URL"} {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	cfg.SettingsStore = strings.ToLower(strings.TrimSpace(cfg.SettingsStore))
	cfg.AnalysisMode = strings.ToLower(strings.TrimSpace(cfg.AnalysisMode))
	return cfg, nil
}
