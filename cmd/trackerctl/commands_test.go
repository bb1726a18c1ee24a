package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seed = `expenses:
  - title: Rent
    amount: "1200"
    category: Bills
    date: 2024-01-02
  - title: Lunch
    amount: "300"
    category: Food
    date: 2024-01-03
income:
  - title: Salary
    amount: "3000"
    category: Salary
    date: 2024-01-01
scheduled:
  - title: Netflix
    amount: "15.99"
    category: Entertainment
    date: 2024-01-05
    frequency: monthly
  - title: Insurance
    amount: "120"
    category: Bills
    date: 2024-03-01
    frequency: yearly
`

func setEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seed), 0644))

	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("SEED_FILE", path)
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("AMQP_URL", "")
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(dir, "tracker.db"))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSummaryCmd(t *testing.T) {
	setEnv(t)

	out, err := execute(t, "summary", "--currency", "EUR")
	require.NoError(t, err)
	assert.Contains(t, out, "€3000.00")
	assert.Contains(t, out, "€1500.00")
	assert.Contains(t, out, "(non_negative)")
	assert.Contains(t, out, "Bills")
	assert.Contains(t, out, "80.0%")
	assert.Contains(t, out, "€25.99", "monthly commitment of active scheduled charges")

	out, err = execute(t, "summary", "--from", "2024-01-03")
	require.NoError(t, err)
	assert.Contains(t, out, "(negative)")
	assert.NotContains(t, out, "Bills")
}

func TestSummaryCmd_BadDate(t *testing.T) {
	setEnv(t)
	_, err := execute(t, "summary", "--to", "tomorrow")
	assert.Error(t, err)
}

func TestExportCmd_RequiresSpreadsheet(t *testing.T) {
	setEnv(t)
	_, err := execute(t, "export")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_SPREADSHEET_ID")
}

func TestWorkerCmd_RequiresAMQP(t *testing.T) {
	setEnv(t)
	_, err := execute(t, "worker")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AMQP_URL")
}

func TestMigrateCmd(t *testing.T) {
	setEnv(t)

	out, err := execute(t, "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "migrations applied")

	out, err = execute(t, "migrate", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "dirty=false")
	assert.NotContains(t, out, "version 0 ")
}
