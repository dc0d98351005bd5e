package postgres

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@h:5432/db", MigrateURL("postgres://u:p@h:5432/db"))
	assert.Equal(t, "pgx5://h/db", MigrateURL("postgresql://h/db"))
	assert.Equal(t, "pgx5://h/db", MigrateURL("pgx5://h/db"))
}

func TestMigrations_ArePaired(t *testing.T) {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	ups, downs := 0, 0
	for _, n := range names {
		switch {
		case strings.HasSuffix(n, ".up.sql"):
			ups++
			_, err := fs.Stat(migrationsFS, strings.TrimSuffix(n, ".up.sql")+".down.sql")
			assert.NoError(t, err, n)
		case strings.HasSuffix(n, ".down.sql"):
			downs++
		}
	}
	assert.Equal(t, ups, downs)
}

func TestMigrations_LedgerConstraints(t *testing.T) {
	body, err := fs.ReadFile(migrationsFS, "migrations/000002_ledger.up.sql")
	require.NoError(t, err)
	ddl := string(body)

	assert.Contains(t, ddl, "uq_invoices_no_invoice_active")
	assert.Contains(t, ddl, "drug_id      UUID NOT NULL UNIQUE")
	assert.Contains(t, ddl, "DEFERRABLE INITIALLY DEFERRED")
	assert.Contains(t, ddl, "stock_details_barcode_key")
}
