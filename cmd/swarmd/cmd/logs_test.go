package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for one writer and one reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestPrintTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swarmd.log")
	content := "one\ntwo\nthree\nfour\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	tests := []struct {
		name string
		n    int
		want string
	}{
		{"last two", 2, "three\nfour\n"},
		{"more than available", 10, content},
		{"all", 0, content},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			offset, err := printTail(&buf, path, tt.n)
			require.NoError(t, err)
			assert.Equal(t, tt.want, buf.String())
			assert.Equal(t, int64(len(content)), offset)
		})
	}

	_, err := printTail(&bytes.Buffer{}, filepath.Join(t.TempDir(), "missing.log"), 5)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFollowFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swarmd.log")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0600))

	ctx, cancel := context.WithCancel(context.Background())
	var out syncBuffer
	done := make(chan error, 1)
	go func() { done <- followFile(ctx, &out, path, 4) }()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0600)
	require.NoError(t, err)
	_, err = f.WriteString("new line\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.Eventually(t, func() bool { return out.String() == "new line\n" }, testTimeout, 10*time.Millisecond)

	// Recreated file, as after the daemon heals a deleted log.
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.WriteFile(path, []byte("fresh\n"), 0600))
	require.Eventually(t, func() bool { return strings.HasSuffix(out.String(), "fresh\n") }, testTimeout, 10*time.Millisecond)
	assert.True(t, strings.HasPrefix(out.String(), "new line\n"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(testTimeout):
		t.Fatal("followFile did not return after cancel")
	}
}
