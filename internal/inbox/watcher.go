// Package inbox turns CSV files dropped into a folder into contact lists.
//
// Each `<name>.csv` becomes the list `<name>`, built from every includable row
// exactly like an upload through the API. The file is removed once handled,
// whether or not the list could be created.
package inbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/unclebandit/muxo-dispatch/internal/model"
	"github.com/unclebandit/muxo-dispatch/internal/service"
)

// settle lets writers finish before a file is read.
const settle = 250 * time.Millisecond

type ListCreator interface {
	CreateList(name string, rows []model.ImportRow) ([]model.Contact, error)
}

type Watcher struct {
	dir   string
	lists ListCreator
	fs    *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*time.Timer
}

func NewWatcher(dir string, lists ListCreator) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create inbox %s: %w", dir, err)
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("start inbox watcher: %w", err)
	}
	if err := fs.Add(dir); err != nil {
		fs.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &Watcher{dir: dir, lists: lists, fs: fs, pending: map[string]*time.Timer{}}, nil
}

// Run handles events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer w.fs.Close()
	log.Info().Str("dir", w.dir).Msg("watching inbox")

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			for _, t := range w.pending {
				t.Stop()
			}
			w.mu.Unlock()
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 || !strings.EqualFold(filepath.Ext(ev.Name), ".csv") {
				continue
			}
			w.schedule(ev.Name)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Str("dir", w.dir).Msg("inbox watcher error")
		}
	}
}

// schedule processes path once it has been quiet for settle.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Reset(settle)
		return
	}
	w.pending[path] = time.AfterFunc(settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		if err := ProcessFile(path, w.lists); err != nil {
			log.Warn().Err(err).Str("file", path).Msg("failed to process inbox file")
		}
	})
}

// ProcessFile creates a list named after the file and removes the file.
// A file that is already gone is not an error.
func ProcessFile(path string, lists ListCreator) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("file", path).Msg("failed to remove inbox file")
		}
	}()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	contacts, err := lists.CreateList(name, service.ParseContacts(string(data)))
	if err != nil {
		return err
	}
	log.Info().Str("file", path).Str("list", name).Int("contacts", len(contacts)).Msg("inbox file imported")
	return nil
}
