// Package watcher re-exports a report document whenever its JSON file
// changes on disk.
package watcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"reports/internal/blocktree"
	"reports/internal/domain"
	"reports/internal/service"
)

// DefaultDebounce collapses the burst of events editors emit on save.
const DefaultDebounce = 300 * time.Millisecond

// Target is one output written on every change.
type Target struct {
	Format string
	Path   string
}

// TargetFor derives the format of path from its extension.
func TargetFor(path string) (Target, error) {
	format, err := service.ParseFormat(filepath.Ext(path))
	if err != nil {
		return Target{}, err
	}
	return Target{Format: format, Path: path}, nil
}

// Watcher rebuilds its targets from a source report file.
type Watcher struct {
	src      string
	targets  []Target
	opts     service.ExportOptions
	log      *log.Logger
	debounce time.Duration

	mu      sync.Mutex
	onBuild func(error)
}

// New returns a watcher for src. Nothing runs until Run.
func New(src string, targets []Target, opts service.ExportOptions, logger *log.Logger) (*Watcher, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("watch %s: no output targets", src)
	}
	abs, err := filepath.Abs(src)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", src, err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Watcher{
		src:      abs,
		targets:  targets,
		opts:     opts,
		log:      logger.WithPrefix("watch"),
		debounce: DefaultDebounce,
	}, nil
}

// SetDebounce changes the quiet period before a rebuild.
func (w *Watcher) SetDebounce(d time.Duration) { w.debounce = d }

// OnBuild registers fn to be called after every rebuild.
func (w *Watcher) OnBuild(fn func(error)) {
	w.mu.Lock()
	w.onBuild = fn
	w.mu.Unlock()
}

// Build reads the source once and writes every target. A source that fails
// to decode leaves the previous outputs in place.
func (w *Watcher) Build() error {
	data, err := os.ReadFile(w.src)
	if err != nil {
		return fmt.Errorf("read %s: %w", w.src, err)
	}
	var r domain.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("decode %s: %w", w.src, err)
	}
	for _, sec := range r.Sections {
		if err := blocktree.New(sec.Blocks).Validate(); err != nil {
			return fmt.Errorf("section %s: %w", sec.ID, err)
		}
	}

	for _, t := range w.targets {
		var buf bytes.Buffer
		if err := service.ExportReport(&buf, &r, t.Format, w.opts); err != nil {
			return fmt.Errorf("export %s: %w", t.Path, err)
		}
		if err := WriteFile(t.Path, buf.Bytes()); err != nil {
			return err
		}
		w.log.Info("exported", "format", t.Format, "path", t.Path, "bytes", buf.Len())
	}
	return nil
}

// Run builds once, then rebuilds on every write to the source until ctx is
// done. Build errors are logged and do not stop the loop.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	// Watch the directory: editors often replace the file on save.
	if err := fw.Add(filepath.Dir(w.src)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.src), err)
	}
	w.rebuild()
	w.log.Info("watching", "src", w.src, "targets", len(w.targets))

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if abs, _ := filepath.Abs(event.Name); abs != w.src {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.rebuild)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watcher error", "err", err)
		}
	}
}

func (w *Watcher) rebuild() {
	err := w.Build()
	if err != nil {
		w.log.Error("rebuild failed", "err", err)
	}
	w.mu.Lock()
	fn := w.onBuild
	w.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}

// WriteFile replaces path so readers never see a partial export.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	return os.Rename(tmp.Name(), path)
}
