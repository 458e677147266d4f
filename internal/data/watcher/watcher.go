package watcher

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/penwyp/go-colony-monitor/internal/core/model"
	"github.com/penwyp/go-colony-monitor/internal/util"
)

// DefaultDebounce groups the bursts of events editors produce on save.
const DefaultDebounce = 500 * time.Millisecond

// FileWatcher reports changes of observation files under a directory.
// Events whose file content did not change are dropped.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	ext      string
	debounce time.Duration
	events   chan []model.FileEvent
	done     chan struct{}
	wg       sync.WaitGroup

	mu           sync.Mutex
	fingerprints map[string]string
}

// NewFileWatcher watches every directory under root for files with ext.
func NewFileWatcher(root, ext string, debounce time.Duration) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw := &FileWatcher{
		watcher:      w,
		ext:          strings.ToLower(ext),
		debounce:     debounce,
		events:       make(chan []model.FileEvent, 16),
		done:         make(chan struct{}),
		fingerprints: make(map[string]string),
	}

	if err := fw.addPath(root); err != nil {
		w.Close()
		return nil, err
	}

	fw.wg.Add(1)
	go fw.processEvents()

	return fw, nil
}

func (fw *FileWatcher) addPath(root string) error {
	return filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}

		if info.IsDir() {
			return fw.watcher.Add(p)
		}
		if fw.matches(p) {
			if fp, err := util.FileFingerprint(p); err == nil {
				fw.fingerprints[p] = fp
			}
		}
		return nil
	})
}

func (fw *FileWatcher) matches(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == fw.ext
}

// changed reports whether the event alters the file content and records
// the new fingerprint.
func (fw *FileWatcher) changed(event fsnotify.Event) bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		delete(fw.fingerprints, event.Name)
		return true
	}

	fp, err := util.FileFingerprint(event.Name)
	if err != nil {
		return true
	}
	if fw.fingerprints[event.Name] == fp {
		return false
	}
	fw.fingerprints[event.Name] = fp
	return true
}

func (fw *FileWatcher) processEvents() {
	defer fw.wg.Done()
	defer close(fw.events)

	var pending []model.FileEvent
	timer := time.NewTimer(fw.debounce)
	timer.Stop()

	for {
		select {
		case <-fw.done:
			timer.Stop()
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = fw.addPath(event.Name)
					continue
				}
			}
			if !fw.matches(event.Name) || event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			if !fw.changed(event) {
				continue
			}
			pending = append(pending, model.FileEvent{Path: event.Name, Operation: event.Op.String()})
			timer.Reset(fw.debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			select {
			case fw.events <- pending:
			case <-fw.done:
				return
			}
			pending = nil

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			util.LogError("File monitoring error: " + err.Error())
		}
	}
}

// Events delivers debounced batches of changes. It is closed by Close.
func (fw *FileWatcher) Events() <-chan []model.FileEvent {
	return fw.events
}

// Close stops watching and waits for the event loop to exit.
func (fw *FileWatcher) Close() error {
	close(fw.done)
	err := fw.watcher.Close()
	fw.wg.Wait()
	return err
}
