package inbox

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/muxo-dispatch/internal/repository"
	"github.com/unclebandit/muxo-dispatch/internal/service"
)

func TestProcessFileCreatesListAndRemovesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vips.csv")
	require.NoError(t, os.WriteFile(path, []byte("15551,Ann,Lee,vip\n15552,Bob,Kim,opt-out\n"), 0o644))

	lists := repository.NewListRepository()
	require.NoError(t, ProcessFile(path, service.NewContactService(lists)))

	contacts, ok := lists.Get("vips")
	require.True(t, ok)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Ann", contacts[0].FirstName)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestProcessFileMissingIsNoop(t *testing.T) {
	lists := repository.NewListRepository()
	assert.NoError(t, ProcessFile(filepath.Join(t.TempDir(), "gone.csv"), service.NewContactService(lists)))
	assert.Empty(t, lists.Names())
}

func TestWatcherPicksUpDroppedFile(t *testing.T) {
	dir := t.TempDir()
	lists := repository.NewListRepository()
	w, err := NewWatcher(dir, service.NewContactService(lists))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "dropped.csv"), []byte("15551,Ann,Lee,\n"), 0o644))

	require.Eventually(t, func() bool {
		c, ok := lists.Get("dropped")
		return ok && len(c) == 1
	}, 5*time.Second, 50*time.Millisecond)
}
