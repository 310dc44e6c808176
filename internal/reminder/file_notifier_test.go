package reminder

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileNotifier_Emit(t *testing.T) {
	dir := t.TempDir()
	n := FileNotifier{
		BodiesPath: filepath.Join(dir, "out", "email_bodies.txt"),
		OutputPath: filepath.Join(dir, "github_output"),
	}
	require.NoError(t, os.WriteFile(n.OutputPath, []byte("previous=1\n"), 0o644))

	batch := newBatch()
	batch.add("bob@example.com", "first body")
	batch.add("ann@example.com", "second body")
	batch.DueCount = 3

	require.NoError(t, n.Emit(context.Background(), batch))

	bodies, err := os.ReadFile(n.BodiesPath)
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com:first body\nann@example.com:second body\n", string(bodies))

	out, err := os.ReadFile(n.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, "previous=1\nrecipients=bob@example.com,ann@example.com\nemail_bodies="+n.BodiesPath+"\npost_count=3\n", string(out))
}

func TestFileNotifier_AllSkipped(t *testing.T) {
	dir := t.TempDir()
	n := FileNotifier{
		BodiesPath: filepath.Join(dir, "email_bodies.txt"),
		OutputPath: filepath.Join(dir, "output.txt"),
	}
	batch := newBatch()
	batch.DueCount = 1

	require.NoError(t, n.Emit(context.Background(), batch))

	bodies, err := os.ReadFile(n.BodiesPath)
	require.NoError(t, err)
	assert.Empty(t, bodies)

	out, err := os.ReadFile(n.OutputPath)
	require.NoError(t, err)
	assert.Contains(t, string(out), "recipients=\n")
	assert.Contains(t, string(out), "post_count=1\n")
}
