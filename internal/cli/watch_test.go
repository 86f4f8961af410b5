package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchRequiresDatabase(t *testing.T) {
	cmd := NewWatchCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no database")
}

func TestWatchPrintsInitialBatchesUntilCancelled(t *testing.T) {
	_, dbPath := seedDatabase(t)

	buf := &bytes.Buffer{}
	cmd := NewWatchCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", dbPath})

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- cmd.ExecuteContext(ctx)
	}()

	select {
	case err := <-errChan:
		require.NoError(t, err, "watch exits cleanly on cancellation")
	case <-time.After(5 * time.Second):
		t.Fatal("command did not respect context timeout")
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3, "one batch per kind: %s", buf.String())
	joined := buf.String()
	assert.Contains(t, joined, `"kind":"transaction"`)
	assert.Contains(t, joined, `"kind":"address"`)
	assert.Contains(t, joined, `"kind":"message"`)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, `{"id":`), line)
		assert.Contains(t, line, `"reset":true`)
	}
}

func TestWatchWithConfigFile(t *testing.T) {
	dir, dbPath := seedDatabase(t)
	cfgPath := writeConfig(t, dir, "visible:\n  transaction: [\"Sent to\"]\n")

	buf := &bytes.Buffer{}
	cmd := NewWatchCommand(&RootOptions{Format: "text", Config: cfgPath})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", dbPath, "--kind", "transaction"})

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, cmd.ExecuteContext(ctx))

	out := buf.String()
	assert.Contains(t, out, "Watching for changes")
	assert.Contains(t, out, "transaction reset 1 record(s)")
	assert.Contains(t, out, "  b2\n")
}
