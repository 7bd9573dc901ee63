package config

import (
	"context"
	"time"

	"studyflow/configs"
	"studyflow/internal/ai"
	"studyflow/internal/auth"
	"studyflow/internal/cache"
	"studyflow/internal/repository"
	"studyflow/internal/websocket"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
)

// Shared dependencies used by the handlers and middleware.
var (
	DB          *sqlx.DB
	RedisClient *redis.Client
	Validate    = validator.New()
	Ctx         = context.Background()

	JWTSecret = []byte("secret")
	JWTTTL    = 24 * time.Hour

	Tasks *repository.TaskStore
	Users *repository.UserStore
	Auth  *auth.Service
	Cache = cache.New(nil, "", 0, "")
	Hub   *websocket.Hub
	AI    = ai.NewClient(ai.Config{})
)

// Init wires the globals around an open database and an optional Redis client.
func Init(cfg configs.Config, db *sqlx.DB, rdb *redis.Client) {
	DB = db
	RedisClient = rdb

	JWTSecret = []byte(cfg.JWTSecret)
	if cfg.JWTTTL > 0 {
		JWTTTL = cfg.JWTTTL
	}

	Tasks = repository.NewTaskStore(db)
	Users = repository.NewUserStore(db)
	Auth = auth.NewService(Users, auth.PolicyFor(cfg.PasswordMode), Validate)
	Cache = cache.New(rdb, "studyflow:", cfg.CacheTTL, cfg.CacheEncryptionKey)
	Hub = websocket.NewHub()
	AI = ai.NewClient(ai.Config{
		APIKey:  cfg.OpenAIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
	})
}
