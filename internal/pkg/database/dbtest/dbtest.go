// Package dbtest gives repository tests an isolated, migrated Postgres
// schema. Tests skip when TEST_DATABASE_URL is unset.
package dbtest

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const lockKey = 727274

// Open creates a fresh schema, applies the migrations into it and returns a
// pool bound to that schema. The schema is dropped when the test ends.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()

	base := os.Getenv("TEST_DATABASE_URL")
	if base == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	admin, err := sqlx.Connect("postgres", base)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { admin.Close() })

	schema := "t_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	// Packages run in parallel; serialize the database-wide extension setup
	// on a single connection.
	conn, err := admin.Conn(context.Background())
	if err != nil {
		t.Fatalf("conn: %v", err)
	}
	setup := []string{
		fmt.Sprintf(`SELECT pg_advisory_lock(%d)`, lockKey),
		`CREATE EXTENSION IF NOT EXISTS btree_gist WITH SCHEMA public`,
		fmt.Sprintf(`SELECT pg_advisory_unlock(%d)`, lockKey),
		`CREATE SCHEMA ` + schema,
	}
	for _, q := range setup {
		if _, err := conn.ExecContext(context.Background(), q); err != nil {
			conn.Close()
			t.Fatalf("setup %q: %v", q, err)
		}
	}
	conn.Close()

	t.Cleanup(func() {
		if _, err := admin.Exec(`DROP SCHEMA ` + schema + ` CASCADE`); err != nil {
			t.Logf("drop schema %s: %v", schema, err)
		}
	})

	dsn, err := withSearchPath(base, schema+",public")
	if err != nil {
		t.Fatalf("dsn: %v", err)
	}
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Fatalf("connect schema: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ddl, err := os.ReadFile(migrationPath())
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	// The extension already lives in public.
	body := strings.Replace(string(ddl), "CREATE EXTENSION IF NOT EXISTS btree_gist;", "", 1)
	if _, err := db.Exec(body); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func withSearchPath(dsn, path string) (string, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", err
		}
		q := u.Query()
		q.Set("search_path", path)
		u.RawQuery = q.Encode()
		return u.String(), nil
	}
	return dsn + " search_path=" + path, nil
}

func migrationPath() string {
	_, file, _, _ := runtime.Caller(0)
	root := filepath.Join(filepath.Dir(file), "..", "..", "..", "..")
	return filepath.Join(root, "migrations", "000001_init.up.sql")
}

// Exec runs a seed statement, failing the test on error.
func Exec(t testing.TB, db *sqlx.DB, query string, args ...interface{}) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

// User inserts a user with the given role and returns its id.
func User(t testing.TB, db *sqlx.DB, role string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	Exec(t, db, `INSERT INTO users (id, email, password_hash, user_type) VALUES ($1, $2, 'x', $3)`,
		id, id.String()+"@example.test", role)
	return id
}
