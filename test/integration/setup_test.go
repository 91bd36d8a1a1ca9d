package integration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/kelly-developers/patientcare-sub000/internal/platform/db"
	"github.com/kelly-developers/patientcare-sub000/migrations"
)

var errDockerUnavailable = errors.New("docker unavailable")

// globalPool is migrated once in TestMain and shared by every test. Tests
// create their own patients and doctors so they never collide.
var globalPool *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()

	connStr := os.Getenv("INTEGRATION_DATABASE_URL")
	cleanup := func() {}
	if connStr == "" {
		var err error
		connStr, cleanup, err = startPostgresContainer(ctx)
		if errors.Is(err, errDockerUnavailable) {
			fmt.Fprintln(os.Stderr, "skipping integration tests: no INTEGRATION_DATABASE_URL and docker is unavailable")
			os.Exit(0)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to setup postgres container: %v\n", err)
			os.Exit(1)
		}
	}

	pool, err := db.NewPool(ctx, db.PoolConfig{URL: connStr, MaxConns: 10})
	if err != nil {
		cleanup()
		fmt.Fprintf(os.Stderr, "create pool: %v\n", err)
		os.Exit(1)
	}
	if _, err := db.NewMigrator(pool, migrations.FS, zerolog.Nop()).Up(ctx, "public"); err != nil {
		pool.Close()
		cleanup()
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}

	globalPool = pool
	code := m.Run()
	pool.Close()
	cleanup()
	os.Exit(code)
}

func createPatient(t *testing.T, ctx context.Context, first, last string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	if _, err := globalPool.Exec(ctx,
		`INSERT INTO patient (id, first_name, last_name) VALUES ($1, $2, $3)`, id, first, last); err != nil {
		t.Fatalf("insert patient: %v", err)
	}
	return id
}

func createDoctor(t *testing.T, ctx context.Context, name string, available bool) (doctorID, userID uuid.UUID) {
	t.Helper()
	doctorID, userID = uuid.New(), uuid.New()
	if _, err := globalPool.Exec(ctx,
		`INSERT INTO doctor (id, user_id, full_name, is_available) VALUES ($1, $2, $3, $4)`,
		doctorID, userID, name, available); err != nil {
		t.Fatalf("insert doctor: %v", err)
	}
	return doctorID, userID
}

func ptrStr(s string) *string { return &s }
func ptrInt(i int) *int       { return &i }
func ptrBool(b bool) *bool    { return &b }
