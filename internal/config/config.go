package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env             string        `mapstructure:"ENV"`
	Port            string        `mapstructure:"PORT"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	AdminKey        string        `mapstructure:"ADMIN_KEY"`
	OpenAIAPIKey    string        `mapstructure:"OPENAI_API_KEY"`
	OpenAIModel     string        `mapstructure:"OPENAI_MODEL"`
	RefDataDir      string        `mapstructure:"REFDATA_DIR"`
	RepEmailDomain  string        `mapstructure:"REP_EMAIL_DOMAIN"`
	FeedBaseURL     string        `mapstructure:"FEED_BASE_URL"`
	StepDelay       time.Duration `mapstructure:"AUTOMATION_STEP_DELAY"`
	CORSAllowed     string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	MaxUploadSizeMB int64         `mapstructure:"MAX_UPLOAD_MB"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("REFDATA_DIR", "refdata")
	v.SetDefault("REP_EMAIL_DOMAIN", "d2cmedia.com")
	v.SetDefault("FEED_BASE_URL", "https://feeds.d2cmedia.com")
	v.SetDefault("AUTOMATION_STEP_DELAY", "0s")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("MAX_UPLOAD_MB", 20)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
