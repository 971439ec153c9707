// Package testutil provides testing utilities for database integration tests.
//
// Environment Variables:
//
// Live database tests only run when a connection string is provided:
//   - TEST_POSTGRES_DSN: PostgreSQL connection string
//   - TEST_MYSQL_DSN: MySQL connection string
//
// When the variable is not set, Setup* skips the calling test, so the suite
// passes in environments without database access.
//
// Database Setup:
//
//	db := testutil.SetupPostgresDB(t)
//	defer testutil.TeardownDB(t, db)
//	defer testutil.CleanupPostgresDB(t, db)
//
// Test Fixtures (for foreign key constraints):
//
//	subjectID := testutil.CreateTestSubject(t, db, "postgres", "alice@example.com")
//
// Migration Path:
//
// Migrations are automatically discovered by walking up from the current
// working directory until a "migrations/{dbType}" directory is found.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

// SetupPostgresDB creates a new PostgreSQL database connection and runs migrations.
// The calling test is skipped when TEST_POSTGRES_DSN is not set.
func SetupPostgresDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN is not set, skipping postgres integration test")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err, "failed to connect to postgres")

	err = db.Ping()
	require.NoError(t, err, "failed to ping postgres database")

	// Run migrations
	runPostgresMigrations(t, db)

	// Clean up any existing data before the test runs
	CleanupPostgresDB(t, db)

	return db
}

// SetupMySQLDB creates a new MySQL database connection and runs migrations.
// The calling test is skipped when TEST_MYSQL_DSN is not set.
func SetupMySQLDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("TEST_MYSQL_DSN is not set, skipping mysql integration test")
	}

	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err, "failed to connect to mysql")

	err = db.Ping()
	require.NoError(t, err, "failed to ping mysql database")

	// Run migrations
	runMySQLMigrations(t, db)

	// Clean up any existing data before the test runs
	CleanupMySQLDB(t, db)

	return db
}

// TeardownDB closes the database connection and cleans up.
func TeardownDB(t *testing.T, db *sql.DB) {
	t.Helper()
	if db != nil {
		err := db.Close()
		require.NoError(t, err, "failed to close database connection")
	}
}

// CleanupPostgresDB truncates all tables in the PostgreSQL database and
// resets the audit chain head to the genesis hash. The audit_chain_head
// table keeps its single row, only the hash is reset.
func CleanupPostgresDB(t *testing.T, db *sql.DB) {
	t.Helper()

	// Truncate tables in reverse order to respect foreign key constraints
	_, err := db.Exec(
		"TRUNCATE TABLE envelopes, consent_records, audit_entries, deletion_requests, subjects RESTART IDENTITY CASCADE",
	)
	require.NoError(t, err, "failed to truncate postgres tables")

	_, err = db.Exec("UPDATE audit_chain_head SET entry_hash = $1 WHERE id = 1", make([]byte, 32))
	require.NoError(t, err, "failed to reset postgres audit chain head")
}

// CleanupMySQLDB truncates all tables in the MySQL database and resets the
// audit chain head to the genesis hash.
func CleanupMySQLDB(t *testing.T, db *sql.DB) {
	t.Helper()

	// Disable foreign key checks temporarily
	_, err := db.Exec("SET FOREIGN_KEY_CHECKS = 0")
	require.NoError(t, err, "failed to disable foreign key checks")

	// Truncate tables
	_, err = db.Exec("TRUNCATE TABLE envelopes")
	require.NoError(t, err, "failed to truncate envelopes table")

	_, err = db.Exec("TRUNCATE TABLE consent_records")
	require.NoError(t, err, "failed to truncate consent_records table")

	_, err = db.Exec("TRUNCATE TABLE audit_entries")
	require.NoError(t, err, "failed to truncate audit_entries table")

	_, err = db.Exec("TRUNCATE TABLE deletion_requests")
	require.NoError(t, err, "failed to truncate deletion_requests table")

	_, err = db.Exec("TRUNCATE TABLE subjects")
	require.NoError(t, err, "failed to truncate subjects table")

	// Re-enable foreign key checks
	_, err = db.Exec("SET FOREIGN_KEY_CHECKS = 1")
	require.NoError(t, err, "failed to enable foreign key checks")

	_, err = db.Exec("UPDATE audit_chain_head SET entry_hash = ? WHERE id = 1", make([]byte, 32))
	require.NoError(t, err, "failed to reset mysql audit chain head")
}

// runPostgresMigrations applies all pending PostgreSQL migrations for the test database.
func runPostgresMigrations(t *testing.T, db *sql.DB) {
	t.Helper()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	require.NoError(t, err, "failed to create postgres driver")

	migrationsPath, err := getMigrationsPath("postgresql")
	require.NoError(t, err, "failed to find postgresql migrations path")

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"postgres",
		driver,
	)
	require.NoError(t, err, "failed to create migrate instance for postgres")

	// Note: We intentionally do NOT close the migrate instance here because we're using
	// WithInstance() with an existing database connection that we don't own. Closing the
	// migrate instance would close the underlying database connection, which is managed
	// by the caller. The file source driver will be garbage collected automatically.

	// Run migrations up
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, fmt.Sprintf("failed to run postgres migrations from %s", migrationsPath))
	}
}

// runMySQLMigrations applies all pending MySQL migrations for the test database.
func runMySQLMigrations(t *testing.T, db *sql.DB) {
	t.Helper()

	driver, err := mysql.WithInstance(db, &mysql.Config{})
	require.NoError(t, err, "failed to create mysql driver")

	migrationsPath, err := getMigrationsPath("mysql")
	require.NoError(t, err, "failed to find mysql migrations path")

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"mysql",
		driver,
	)
	require.NoError(t, err, "failed to create migrate instance for mysql")

	// Note: We intentionally do NOT close the migrate instance here because we're using
	// WithInstance() with an existing database connection that we don't own. Closing the
	// migrate instance would close the underlying database connection, which is managed
	// by the caller. The file source driver will be garbage collected automatically.

	// Run migrations up
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, fmt.Sprintf("failed to run mysql migrations from %s", migrationsPath))
	}
}

// getMigrationsPath resolves the absolute path to migration files for the specified database type.
// Walks up the directory tree from current working directory to find the migrations folder.
// Returns an error if the working directory cannot be determined or migrations are not found.
func getMigrationsPath(dbType string) (string, error) {
	// Get the project root by walking up from the current directory
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	// Walk up the directory tree until we find the migrations directory
	for {
		migrationsPath := filepath.Join(dir, "migrations", dbType)
		if _, err := os.Stat(migrationsPath); err == nil {
			return migrationsPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached the root directory
			return "", fmt.Errorf("migrations directory not found for %s (started from %s)", dbType, dir)
		}
		dir = parent
	}
}

// uuidToDriverValue converts a UUID to the appropriate value for the database driver.
// PostgreSQL uses UUID natively, MySQL requires binary encoding.
func uuidToDriverValue(id uuid.UUID, driver string) (interface{}, error) {
	if driver == "postgres" {
		return id, nil
	}
	// MySQL needs binary format
	return id.MarshalBinary()
}

// CreateTestSubject creates a registered data subject for repository tests.
// Returns the subject ID for use in foreign key relationships.
func CreateTestSubject(t *testing.T, db *sql.DB, driver, email string) uuid.UUID {
	t.Helper()

	subjectID := uuid.Must(uuid.NewV7())
	ctx := context.Background()

	var err error
	if driver == "postgres" {
		_, err = db.ExecContext(ctx,
			`INSERT INTO subjects (id, email, created_at) VALUES ($1, $2, NOW())`,
			subjectID,
			email,
		)
	} else { // mysql
		idValue, marshalErr := uuidToDriverValue(subjectID, driver)
		require.NoError(t, marshalErr, "failed to convert subject UUID for driver "+driver)
		_, err = db.ExecContext(ctx,
			`INSERT INTO subjects (id, email, created_at) VALUES (?, ?, NOW(6))`,
			idValue,
			email,
		)
	}

	require.NoError(t, err, "failed to create test subject: "+email)
	return subjectID
}

// ValidateTestSubject verifies that a test subject was created and not erased.
// Returns true if the subject exists with no erasure timestamp, false otherwise.
func ValidateTestSubject(t *testing.T, db *sql.DB, driver string, subjectID uuid.UUID) bool {
	t.Helper()

	ctx := context.Background()
	var erasedAt sql.NullTime
	var err error

	if driver == "postgres" {
		err = db.QueryRowContext(ctx, `SELECT erased_at FROM subjects WHERE id = $1`, subjectID).Scan(&erasedAt)
	} else { // mysql
		idValue, marshalErr := uuidToDriverValue(subjectID, driver)
		require.NoError(t, marshalErr, "failed to convert subject UUID for validation")
		err = db.QueryRowContext(ctx, `SELECT erased_at FROM subjects WHERE id = ?`, idValue).Scan(&erasedAt)
	}

	if err != nil {
		return false
	}

	return !erasedAt.Valid
}

// AuditChainHead reads the current audit chain head hash.
// Useful for asserting that ledger appends advanced the chain.
func AuditChainHead(t *testing.T, db *sql.DB, driver string) []byte {
	t.Helper()

	query := `SELECT entry_hash FROM audit_chain_head WHERE id = 1`
	var head []byte
	err := db.QueryRowContext(context.Background(), query).Scan(&head)
	require.NoError(t, err, "failed to read audit chain head for driver "+driver)
	return head
}
