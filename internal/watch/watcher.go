// Package watch provides a drop-folder watcher for automated splitting.
// It monitors directories for new or modified workbooks and runs a saved
// split job on each, writing the result next to the input.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/klytics/sheetsplit/internal/split"
)

// OutputSuffix marks files the watcher wrote. They are never picked up again.
const OutputSuffix = ".split.xlsx"

// Config holds the complete watcher configuration.
type Config struct {
	Directories []string `json:"directories"`
	Pattern     string   `json:"pattern,omitempty"` // Glob on the base name (e.g., "sales_*.xlsx")
	JobFile     string   `json:"jobFile,omitempty"`
	Recursive   bool     `json:"recursive"`
	Debounce    int      `json:"debounceMs"` // Milliseconds to wait before processing
}

// Event represents a file event that was detected and processed.
type Event struct {
	Time      time.Time `json:"time"`
	Path      string    `json:"path"`
	Operation string    `json:"operation"` // "create", "modify", "rename"
	Output    string    `json:"output,omitempty"`
	Status    string    `json:"status"` // "processed", "error", "skipped"
	Error     string    `json:"error,omitempty"`
}

// EventHandler processes one settled workbook and returns the path it wrote.
type EventHandler func(ctx context.Context, path string) (string, error)

// Watcher monitors directories for workbook changes and runs the handler.
type Watcher struct {
	Config   Config
	Logger   *slog.Logger
	Events   []Event
	Handler  EventHandler
	mu       sync.Mutex
	ctx      context.Context
	watcher  *fsnotify.Watcher
	debounce map[string]*time.Timer
}

// Status represents the current watcher status.
type Status struct {
	Running     bool     `json:"running"`
	Directories []string `json:"directories"`
	Pattern     string   `json:"pattern,omitempty"`
	EventCount  int      `json:"eventCount"`
	Errors      int      `json:"errors"`
}

// New creates a new Watcher with the given configuration.
func New(config Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create file watcher: %w", err)
	}

	if config.Debounce <= 0 {
		config.Debounce = 500
	}

	w := &Watcher{
		Config:   config,
		Logger:   slog.Default().With(slog.String("component", "watch")),
		ctx:      context.Background(),
		watcher:  fsw,
		debounce: make(map[string]*time.Timer),
	}

	return w, nil
}

// Start begins watching the configured directories. It blocks until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	w.ctx = ctx
	w.mu.Unlock()

	for _, dir := range w.Config.Directories {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("could not resolve %s: %w", dir, err)
		}

		if w.Config.Recursive {
			if err := w.addRecursive(absDir); err != nil {
				return err
			}
		} else {
			if err := w.watcher.Add(absDir); err != nil {
				return fmt.Errorf("could not watch %s: %w", absDir, err)
			}
		}
	}

	w.Logger.Info("watching", slog.Int("directories", len(w.Config.Directories)), slog.String("pattern", w.Config.Pattern))

	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("stopping watcher")
			w.stopTimers()
			return w.watcher.Close()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.Logger.Error("watch error", slog.Any("error", err))
		}
	}
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if info.IsDir() {
			// Skip hidden directories
			if strings.HasPrefix(filepath.Base(path), ".") && path != dir {
				return filepath.SkipDir
			}
			return w.watcher.Add(path)
		}
		return nil
	})
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Only process create and write events
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	path := event.Name
	if !w.Matches(path) {
		return
	}

	// Debounce: editors write a workbook in several bursts
	w.mu.Lock()
	if timer, ok := w.debounce[path]; ok {
		timer.Stop()
	}
	w.debounce[path] = time.AfterFunc(time.Duration(w.Config.Debounce)*time.Millisecond, func() {
		w.mu.Lock()
		delete(w.debounce, path)
		ctx := w.ctx
		w.mu.Unlock()
		w.processFile(ctx, path, event.Op.String())
	})
	w.mu.Unlock()
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.debounce {
		timer.Stop()
		delete(w.debounce, path)
	}
}

func (w *Watcher) processFile(ctx context.Context, path string, operation string) {
	evt := Event{
		Time:      time.Now(),
		Path:      path,
		Operation: operation,
	}

	switch {
	case w.Handler == nil:
		evt.Status = "skipped"
		w.Logger.Info("matched", slog.String("path", path), slog.String("handler", "none"))
	default:
		out, err := w.Handler(ctx, path)
		if err != nil {
			evt.Status = "error"
			evt.Error = err.Error()
			w.Logger.Error("split failed", slog.String("path", path), slog.Any("error", err))
		} else {
			evt.Status = "processed"
			evt.Output = out
			w.Logger.Info("split written", slog.String("path", path), slog.String("output", out))
		}
	}

	w.mu.Lock()
	w.Events = append(w.Events, evt)
	w.mu.Unlock()
}

// Matches reports whether path is a workbook the watcher should process:
// an .xlsx that is neither an Office lock file nor one of its own outputs,
// and that matches the configured pattern.
func (w *Watcher) Matches(path string) bool {
	base := filepath.Base(path)
	lower := strings.ToLower(base)

	if filepath.Ext(lower) != ".xlsx" {
		return false
	}
	if strings.HasPrefix(base, "~$") || strings.HasPrefix(base, ".~") {
		return false
	}
	if strings.HasSuffix(lower, OutputSuffix) {
		return false
	}

	if w.Config.Pattern != "" {
		matched, _ := filepath.Match(w.Config.Pattern, base)
		if !matched {
			return false
		}
	}

	return true
}

// OutputPath returns where the split result for input is written.
func OutputPath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + OutputSuffix
}

// SplitHandler returns a handler that runs job against each workbook and
// writes the result to OutputPath. The job's own output name is ignored.
func SplitHandler(sp *split.Splitter, job *split.Job) EventHandler {
	return func(ctx context.Context, path string) (string, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("could not read %s: %w", path, err)
		}

		_, out, err := sp.Split(ctx, data, job.Request())
		if err != nil {
			return "", err
		}

		dest := OutputPath(path)
		if err := os.WriteFile(dest, out, 0644); err != nil {
			return "", fmt.Errorf("could not write %s: %w", dest, err)
		}
		return dest, nil
	}
}

// GetStatus returns the current watcher status.
func (w *Watcher) GetStatus() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	errs := 0
	for _, e := range w.Events {
		if e.Status == "error" {
			errs++
		}
	}
	return Status{
		Running:     true,
		Directories: w.Config.Directories,
		Pattern:     w.Config.Pattern,
		EventCount:  len(w.Events),
		Errors:      errs,
	}
}

// GetEvents returns all recorded events.
func (w *Watcher) GetEvents() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	events := make([]Event, len(w.Events))
	copy(events, w.Events)
	return events
}

// Daemon state: a PID file and the last started config, for "watch status".

const pidFile = "watch.pid"

// WritePIDFile writes the current process ID to the PID file in the given directory.
func WritePIDFile(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	path := filepath.Join(dir, pidFile)
	return os.WriteFile(path, []byte(fmt.Sprintf("%d", os.Getpid())), 0644)
}

// ReadPIDFile reads the PID from the PID file.
func ReadPIDFile(dir string) (int, error) {
	path := filepath.Join(dir, pidFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var pid int
	if _, err := fmt.Sscanf(string(data), "%d", &pid); err != nil {
		return 0, fmt.Errorf("invalid PID file: %w", err)
	}
	return pid, nil
}

// RemovePIDFile removes the PID file.
func RemovePIDFile(dir string) error {
	return os.Remove(filepath.Join(dir, pidFile))
}

// SaveConfig writes the watcher config to a JSON file.
func SaveConfig(dir string, config Config) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "watch-config.json"), data, 0644)
}

// LoadConfig reads the watcher config from a JSON file.
func LoadConfig(dir string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(dir, "watch-config.json"))
	if err != nil {
		return nil, err
	}
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("invalid watch config: %w", err)
	}
	return &config, nil
}

// DefaultStateDir returns the directory holding watcher state.
func DefaultStateDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".sheetsplit")
}
