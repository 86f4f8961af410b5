package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shadowfeed/internal/feed"
	"github.com/roach88/shadowfeed/internal/store"
)

const walletFixture = `
addresses:
  - address: SaAA
    type: R
    label: savings
  - address: SbBB
    type: S
transactions:
  - txid: a1
    type: recv_with_address
    confirmations: 12
    time: 1700000000
    address: SaAA
    amount: 150000000
  - txid: b2
    type: send_to_address
    confirmations: 3
    time: 1700003600
    address: SxXX
    amount: -25000000
messages:
  - key: m1
    type: Received
    sent_at: 1700000100
    received_at: 1700000200
    from_address: SaAA
    body: "see you <soon>"
`

func writeFixture(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "wallet.yaml")
	require.NoError(t, os.WriteFile(path, []byte(walletFixture), 0644))
	return path
}

func TestSeedMissingArgs(t *testing.T) {
	cmd := NewSeedCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", filepath.Join(t.TempDir(), "w.db")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestSeedRequiresDatabase(t *testing.T) {
	dir := t.TempDir()
	fixture := writeFixture(t, dir)

	cmd := NewSeedCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{fixture})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no database")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSeedFixtureNotFound(t *testing.T) {
	cmd := NewSeedCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", filepath.Join(t.TempDir(), "w.db"), "/nonexistent/wallet.yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fixture not found")
}

func TestSeedInvalidFixture(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("adresses: []\n"), 0644))

	cmd := NewSeedCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", filepath.Join(dir, "w.db"), path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid fixture")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSeedWritesRecords(t *testing.T) {
	dir := t.TempDir()
	fixture := writeFixture(t, dir)
	dbPath := filepath.Join(dir, "wallet.db")

	buf := &bytes.Buffer{}
	cmd := NewSeedCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", dbPath, fixture})
	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string     `json:"status"`
		Data   SeedResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.Transactions)
	assert.Equal(t, 2, resp.Data.Addresses)
	assert.Equal(t, 1, resp.Data.Messages)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	counts, err := st.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, counts[feed.KindTransaction])
	assert.Equal(t, 2, counts[feed.KindAddress])
	assert.Equal(t, 1, counts[feed.KindMessage])
}

func TestSeedDatabaseFromConfig(t *testing.T) {
	dir := t.TempDir()
	fixture := writeFixture(t, dir)
	dbPath := filepath.Join(dir, "from-config.db")
	cfgPath := filepath.Join(dir, "shadowfeed.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("database: "+dbPath+"\n"), 0644))

	buf := &bytes.Buffer{}
	cmd := NewSeedCommand(&RootOptions{Format: "text", Config: cfgPath})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{fixture})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, buf.String(), "Seeded 2 transaction(s), 2 address(es), 1 message(s)")
	_, err := os.Stat(dbPath)
	assert.NoError(t, err, "database should be created")
}
