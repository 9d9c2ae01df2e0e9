package watcher

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"catchup/internal/config"
	"catchup/internal/ingest"
	"catchup/internal/logging"
)

const defaultSettleDelay = 500 * time.Millisecond

// Submitter accepts a URL for processing. *ingest.Service satisfies it.
type Submitter interface {
	SubmitURL(ctx context.Context, rawURL, language string) (*ingest.Result, error)
}

// Watcher ingests URL files dropped into the configured drop directory.
// Each eligible file is read after a settle delay (editors and browsers
// write in several steps), its URL submitted with automatic language
// detection, and the file moved to processed/ or failed/.
type Watcher struct {
	dropDir   string
	processed string
	failed    string
	submitter Submitter
	logger    *slog.Logger
	settle    time.Duration

	fsw     *fsnotify.Watcher
	pending chan string

	mu      sync.Mutex
	timers  map[string]*time.Timer
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New builds a watcher over cfg.Paths.DropDir.
func New(cfg *config.Config, submitter Submitter, logger *slog.Logger) *Watcher {
	return &Watcher{
		dropDir:   cfg.Paths.DropDir,
		processed: filepath.Join(cfg.Paths.DropDir, "processed"),
		failed:    filepath.Join(cfg.Paths.DropDir, "failed"),
		submitter: submitter,
		logger:    logging.NewComponentLogger(logger, "watcher"),
		settle:    defaultSettleDelay,
		pending:   make(chan string, 64),
		timers:    map[string]*time.Timer{},
	}
}

// WithSettleDelay overrides the write-settle delay (for testing).
func (w *Watcher) WithSettleDelay(d time.Duration) {
	if d > 0 {
		w.settle = d
	}
}

// Start creates the drop directories, begins watching, and sweeps files
// already present so drops made while the daemon was down are not lost.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("watcher already running")
	}

	for _, dir := range []string{w.dropDir, w.processed, w.failed} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			w.mu.Unlock()
			return err
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	if err := fsw.Add(w.dropDir); err != nil {
		fsw.Close()
		w.mu.Unlock()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.fsw = fsw
	w.cancel = cancel
	w.running = true
	w.wg.Add(2)
	w.mu.Unlock()

	go w.eventLoop(runCtx)
	go w.ingestLoop(runCtx)

	if err := w.sweep(); err != nil {
		w.logger.Warn("initial drop directory sweep failed", logging.Error(err))
	}
	w.logger.Info("watching drop directory", logging.String("path", w.dropDir))
	return nil
}

// Stop halts watching and waits for in-flight submissions to finish.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	w.running = false
	w.cancel = nil
	for path, timer := range w.timers {
		timer.Stop()
		delete(w.timers, path)
	}
	fsw := w.fsw
	w.fsw = nil
	w.mu.Unlock()

	cancel()
	if fsw != nil {
		fsw.Close()
	}
	w.wg.Wait()
	w.logger.Info("watcher stopped")
}

func (w *Watcher) eventLoop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !eligible(event.Name) {
				continue
			}
			w.schedule(event.Name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", logging.Error(err))
		}
	}
}

func (w *Watcher) ingestLoop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-w.pending:
			w.ingest(ctx, path)
		}
	}
}

// sweep schedules files already sitting in the drop directory.
func (w *Watcher) sweep() error {
	entries, err := os.ReadDir(w.dropDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.dropDir, entry.Name())
		if eligible(path) {
			w.schedule(path)
		}
	}
	return nil
}

// schedule debounces repeated events for one path behind a settle timer.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	if timer, ok := w.timers[path]; ok {
		timer.Reset(w.settle)
		return
	}
	w.timers[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		select {
		case w.pending <- path:
		default:
			w.logger.Warn("drop backlog full, file skipped until next event", logging.String("path", path))
		}
	})
}

func (w *Watcher) ingest(ctx context.Context, path string) {
	url, err := readDropFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return
		}
		w.logger.Warn("unreadable drop file", logging.String("path", path), logging.Error(err))
		w.moveTo(path, w.failed)
		return
	}
	if url == "" {
		w.logger.Warn("drop file contains no url", logging.String("path", path))
		w.moveTo(path, w.failed)
		return
	}

	result, err := w.submitter.SubmitURL(ctx, url, "auto")
	if err != nil {
		w.logger.Error("drop submission failed",
			logging.String("path", path),
			logging.String("url", url),
			logging.Error(err),
		)
		w.moveTo(path, w.failed)
		return
	}

	w.logger.Info("drop file submitted",
		logging.String("path", path),
		logging.String(logging.FieldJobID, result.Job.ID),
		logging.String(logging.FieldLectureID, result.Lecture.ID),
	)
	w.moveTo(path, w.processed)
}

func (w *Watcher) moveTo(path, destDir string) {
	target := filepath.Join(destDir, filepath.Base(path))
	if _, err := os.Stat(target); err == nil {
		ext := filepath.Ext(target)
		stem := strings.TrimSuffix(filepath.Base(path), ext)
		target = filepath.Join(destDir, stem+"-"+strconv.FormatInt(time.Now().UnixNano(), 10)+ext)
	}
	if err := os.Rename(path, target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		w.logger.Warn("could not move drop file",
			logging.String("path", path),
			logging.String("target", target),
			logging.Error(err),
		)
	}
}

func eligible(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".url", ".txt":
		return true
	default:
		return false
	}
}

// readDropFile extracts the first URL from a drop file. Plain text files
// carry the URL on the first non-empty line; Windows .url shortcuts carry
// it on a URL= line under an [InternetShortcut] header. Comment lines and
// section headers are skipped.
func readDropFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "[") {
			continue
		}
		line = strings.TrimPrefix(line, "URL=")
		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
			return line, nil
		}
	}
	return "", nil
}
