package configs

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port int

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBNameTest string

	RedisHost          string
	RedisPort          int
	RedisPassword      string
	CacheTTL           time.Duration
	CacheEncryptionKey string

	JWTSecret    string
	JWTTTL       time.Duration
	PasswordMode string

	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string

	AutoArchiveAfter    time.Duration
	AutoArchiveInterval time.Duration
	ShutdownTimeout     time.Duration
	LogDir              string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", 4000)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "studyflow")
	v.SetDefault("DB_NAME", "studyflow")
	v.SetDefault("DB_NAME_TEST", "studyflow_test")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("CACHE_TTL", "10m")
	v.SetDefault("JWT_SECRET", "secret")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("PASSWORD_MODE", "plain")
	v.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("OPENAI_MODEL", "gpt-3.5-turbo")
	v.SetDefault("AUTO_ARCHIVE_AFTER", "168h")
	v.SetDefault("AUTO_ARCHIVE_INTERVAL", "1h")
	v.SetDefault("SHUTDOWN_TIMEOUT", "30s")
	v.SetDefault("LOG_DIR", "logs")
}

// LoadConfig reads .env (when present) into the environment and resolves
// every setting from the environment, falling back to defaults.
func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		// Stay quiet under tests
		if os.Getenv("GO_ENV") != "test" {
			log.Println("No .env file found, using default values")
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return Config{
		Port:                v.GetInt("PORT"),
		DBHost:              v.GetString("DB_HOST"),
		DBPort:              v.GetInt("DB_PORT"),
		DBUser:              v.GetString("DB_USER"),
		DBPassword:          v.GetString("DB_PASSWORD"),
		DBName:              v.GetString("DB_NAME"),
		DBNameTest:          v.GetString("DB_NAME_TEST"),
		RedisHost:           v.GetString("REDIS_HOST"),
		RedisPort:           v.GetInt("REDIS_PORT"),
		RedisPassword:       v.GetString("REDIS_PASSWORD"),
		CacheTTL:            v.GetDuration("CACHE_TTL"),
		CacheEncryptionKey:  v.GetString("CACHE_ENCRYPTION_KEY"),
		JWTSecret:           v.GetString("JWT_SECRET"),
		JWTTTL:              v.GetDuration("JWT_TTL"),
		PasswordMode:        v.GetString("PASSWORD_MODE"),
		OpenAIKey:           v.GetString("OPENAI_API_KEY"),
		OpenAIBaseURL:       v.GetString("OPENAI_BASE_URL"),
		OpenAIModel:         v.GetString("OPENAI_MODEL"),
		AutoArchiveAfter:    v.GetDuration("AUTO_ARCHIVE_AFTER"),
		AutoArchiveInterval: v.GetDuration("AUTO_ARCHIVE_INTERVAL"),
		ShutdownTimeout:     v.GetDuration("SHUTDOWN_TIMEOUT"),
		LogDir:              v.GetString("LOG_DIR"),
	}
}
