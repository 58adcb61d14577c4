package cmd

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paysight/internal/config"
	"paysight/internal/observability"
	"paysight/internal/ui"
	"paysight/internal/warehouse"
)

const testConfig = `warehouse:
  driver: mysql
  host: localhost
  username: analyst
  database: phonepe
log:
  level: error
output:
  format: table
`

// execute runs the root command with args and returns everything it
// wrote. Flags are reset first because cobra keeps their values between
// runs of the same command tree.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	prev := ui.SetOutput(io.Discard)
	t.Cleanup(func() { ui.SetOutput(prev) })

	b := bytes.NewBufferString("")
	rootCmd.SetOut(b)
	rootCmd.SetErr(b)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return b.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// writeConfig points the config lookup at a fresh file holding content
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	t.Setenv(config.EnvConfigFile, path)
	return path
}

// mockWarehouse makes every command connect to a sqlmock pool
func mockWarehouse(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	orig := connectWarehouse
	connectWarehouse = func(ctx context.Context, wc warehouse.Config) (*warehouse.Service, error) {
		svc := warehouse.NewService(wc,
			warehouse.WithOpenFunc(func(warehouse.Config) (*sql.DB, error) { return db, nil }),
			warehouse.WithLogger(observability.Nop()))
		if err := svc.Connect(ctx); err != nil {
			return nil, err
		}
		return svc, nil
	}
	t.Cleanup(func() {
		connectWarehouse = orig
		_ = db.Close()
	})
	return mock
}

// refuseWarehouse fails the test if a command tries to connect
func refuseWarehouse(t *testing.T) {
	t.Helper()
	orig := connectWarehouse
	connectWarehouse = func(ctx context.Context, wc warehouse.Config) (*warehouse.Service, error) {
		t.Fatal("unexpected warehouse connection")
		return nil, nil
	}
	t.Cleanup(func() { connectWarehouse = orig })
}

func expectQuery(mock sqlmock.Sqlmock, query string) *sqlmock.ExpectedQuery {
	return mock.ExpectQuery(regexp.QuoteMeta(query))
}

func TestRootCommand(t *testing.T) {
	writeConfig(t, testConfig)

	output, err := execute(t)
	assert.NoError(t, err)
	assert.Contains(t, output, "paysight")
	assert.Contains(t, output, "payments warehouse")
}

func TestRootCommandHelp(t *testing.T) {
	writeConfig(t, testConfig)

	output, err := execute(t, "--help")
	assert.NoError(t, err)

	assert.Contains(t, output, "Available Commands:")
	for _, name := range []string{"catalog", "entries", "explore", "values", "setup", "encrypt-config", "version"} {
		assert.Contains(t, output, name)
	}
}

func TestInvalidCommand(t *testing.T) {
	writeConfig(t, testConfig)

	_, err := execute(t, "invalid-command")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestVersionCommand(t *testing.T) {
	writeConfig(t, testConfig)

	output, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, output, "paysight version dev")
	assert.Contains(t, output, "Built at: unknown")
}

func TestEntriesCommand(t *testing.T) {
	writeConfig(t, testConfig)
	refuseWarehouse(t)

	output, err := execute(t, "entries", "--format", "csv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(output), "\n")
	require.Len(t, lines, 18)
	assert.Equal(t, "n,name,title,sources,idioms,ordering", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "1,transaction_growth,"))
	assert.True(t, strings.HasPrefix(lines[17], "17,pincode_insurance_growth,"))
}

func TestFormatFromEnvironment(t *testing.T) {
	writeConfig(t, testConfig)
	t.Setenv("PAYSIGHT_OUTPUT_FORMAT", "csv")

	output, err := execute(t, "entries")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(output, "n,name,title"))

	// an explicit flag still wins
	output, err = execute(t, "entries", "--format", "json")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(output, "{"))
}

func TestInvalidFormat(t *testing.T) {
	writeConfig(t, testConfig)

	_, err := execute(t, "entries", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xml")

	writeConfig(t, strings.Replace(testConfig, "format: table", "format: yaml", 1))
	_, err = execute(t, "entries")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestValuesCommand(t *testing.T) {
	writeConfig(t, testConfig)
	mock := mockWarehouse(t)

	expectQuery(mock, `SELECT DISTINCT Year FROM map_user WHERE Year IS NOT NULL ORDER BY Year`).
		WillReturnRows(sqlmock.NewRows([]string{"Year"}).AddRow(int64(2018)).AddRow(int64(2019)))

	output, err := execute(t, "values", "MAP_USER", "year", "--format", "csv")
	require.NoError(t, err)
	assert.Equal(t, "Year\n2018\n2019\n", output)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValuesCommandRejectsUnknownColumn(t *testing.T) {
	writeConfig(t, testConfig)
	refuseWarehouse(t)

	_, err := execute(t, "values", "map_user", "Pincode")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such column")

	_, err = execute(t, "values", "map_user")
	require.Error(t, err)
}

func TestMissingWarehouseSettings(t *testing.T) {
	writeConfig(t, "log:\n  level: error\n")

	_, err := execute(t, "values", "map_user", "Year")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "username is required")
}
