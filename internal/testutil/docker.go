// Package testutil starts throwaway Postgres and Redis containers for
// integration tests. Callers skip their tests when Docker is unavailable.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"studyflow/internal/repository"
	"studyflow/pkg/database"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

const containerTTL = 300 // seconds

func newPool() (*dockertest.Pool, error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("connecting to docker: %w", err)
	}
	if err := pool.Client.Ping(); err != nil {
		return nil, fmt.Errorf("pinging docker: %w", err)
	}
	pool.MaxWait = 60 * time.Second
	return pool, nil
}

func hostConfig(hc *docker.HostConfig) {
	hc.AutoRemove = true
	hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
}

// StartPostgres runs postgres:16-alpine, waits for it, and creates the schema.
// The returned func closes the connection and removes the container.
func StartPostgres() (*sqlx.DB, func(), error) {
	pool, err := newPool()
	if err != nil {
		return nil, nil, err
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=studyflow",
			"POSTGRES_PASSWORD=studyflow123",
			"POSTGRES_DB=studyflow_test",
		},
	}, hostConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("starting postgres: %w", err)
	}
	_ = resource.Expire(containerTTL)

	dsn := fmt.Sprintf("host=localhost port=%s user=studyflow password=studyflow123 dbname=studyflow_test sslmode=disable",
		resource.GetPort("5432/tcp"))

	var db *sqlx.DB
	err = pool.Retry(func() error {
		var err error
		db, err = database.Open(dsn)
		return err
	})
	if err != nil {
		_ = pool.Purge(resource)
		return nil, nil, fmt.Errorf("waiting for postgres: %w", err)
	}

	if err := repository.CreateTableIfNotExists(context.Background(), db); err != nil {
		db.Close()
		_ = pool.Purge(resource)
		return nil, nil, err
	}

	cleanup := func() {
		db.Close()
		_ = pool.Purge(resource)
	}
	return db, cleanup, nil
}

// StartRedis runs redis:7-alpine and returns a connected client.
func StartRedis() (*redis.Client, func(), error) {
	pool, err := newPool()
	if err != nil {
		return nil, nil, err
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Tag:        "7-alpine",
	}, hostConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("starting redis: %w", err)
	}
	_ = resource.Expire(containerTTL)

	client := redis.NewClient(&redis.Options{Addr: "localhost:" + resource.GetPort("6379/tcp")})
	err = pool.Retry(func() error {
		return client.Ping(context.Background()).Err()
	})
	if err != nil {
		client.Close()
		_ = pool.Purge(resource)
		return nil, nil, fmt.Errorf("waiting for redis: %w", err)
	}

	cleanup := func() {
		client.Close()
		_ = pool.Purge(resource)
	}
	return client, cleanup, nil
}

// ResetTables empties both tables between tests.
func ResetTables(t *testing.T, db *sqlx.DB) {
	t.Helper()
	if _, err := db.Exec(`TRUNCATE tasks, users RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncating tables: %v", err)
	}
}

// CreateUser inserts a user directly and returns its id.
func CreateUser(t *testing.T, db *sqlx.DB, username string) int {
	t.Helper()
	user, err := repository.NewUserStore(db).Create(context.Background(), username, "pass123", "Test "+username)
	if err != nil {
		t.Fatalf("creating user %s: %v", username, err)
	}
	return user.ID
}
