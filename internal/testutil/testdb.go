package testutil

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"wager-engine/internal/config"
	"wager-engine/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// OpenTestStore opens a Postgres store inside a throwaway schema with the
// init migration applied. It skips when TEST_POSTGRES_DSN is unset.
func OpenTestStore(t *testing.T) (*store.Store, func()) {
	t.Helper()
	cfg, err := config.LoadTest()
	if err != nil || cfg.TestPostgresDSN == "" {
		t.Skip("skip test db: TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	dsn := cfg.TestPostgresDSN
	schema := pgx.Identifier{fmt.Sprintf("wager_test_%d", time.Now().UnixNano())}

	if err := execOnce(ctx, dsn, "CREATE SCHEMA "+schema.Sanitize()); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	st, err := store.New(withSearchPath(dsn, schema[0]))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := applyMigration(ctx, st); err != nil {
		st.Close()
		t.Fatalf("apply migration: %v", err)
	}
	return st, func() {
		st.Close()
		_ = execOnce(ctx, dsn, "DROP SCHEMA "+schema.Sanitize()+" CASCADE")
	}
}

// OpenTestRedis connects to TEST_REDIS_ADDR and skips when it is unset or unreachable.
func OpenTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	cfg, err := config.LoadTest()
	if err != nil || cfg.TestRedisAddr == "" {
		t.Skip("skip redis: TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.TestRedisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("skip redis: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func execOnce(ctx context.Context, dsn, sql string) error {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()
	_, err = pool.Exec(ctx, sql)
	return err
}

func applyMigration(ctx context.Context, st *store.Store) error {
	path, err := findMigration("000001_init.up.sql")
	if err != nil {
		return err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	_, err = st.Pool.Exec(ctx, string(b))
	return err
}

func findMigration(name string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		p := filepath.Join(dir, "migrations", name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%s not found above working directory", name)
		}
		dir = parent
	}
}

func withSearchPath(dsn, schema string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "search_path=" + url.QueryEscape(schema)
}
