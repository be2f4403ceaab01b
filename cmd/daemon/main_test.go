package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/genricoloni/bingwall/internal/config"
	"github.com/genricoloni/bingwall/internal/domain"
	"github.com/genricoloni/bingwall/internal/engine"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// TestAppGraphValidity verifies that the dependency graph is resolvable.
// This test will fail if you forget an fx.Provide for a required interface.
func TestAppGraphValidity(t *testing.T) {
	err := fx.ValidateApp(
		AppOptions,
		fx.Supply(config.Path(""), LoggerOptions{}),
	)
	if err != nil {
		t.Errorf("Dependency graph is not valid: %v", err)
	}
}

// TestNewLogger specifically verifies the logger configuration
func TestNewLogger(t *testing.T) {
	logger, err := newLogger(LoggerOptions{})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	if logger == nil {
		t.Fatal("Logger should not be nil")
	}
	if logger.Core().Enabled(zap.DebugLevel) {
		t.Error("debug logging should be off by default")
	}

	verbose, err := newLogger(LoggerOptions{Verbose: true})
	if err != nil {
		t.Fatalf("Failed to create verbose logger: %v", err)
	}
	if !verbose.Core().Enabled(zap.DebugLevel) {
		t.Error("verbose logger should enable debug level")
	}
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bingwall.log")

	logger, err := newLogger(LoggerOptions{File: path})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	logger.Info("written to file")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected log file to exist: %v", err)
	}
	if !bytes.Contains(data, []byte("written to file")) {
		t.Errorf("expected log entry in file, got: %s", data)
	}
}

type recordingExecutor struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordingExecutor) SetWallpaper(_ context.Context, path string, _ domain.Display) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
	return nil
}

func (r *recordingExecutor) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

type staticDisplays struct{}

func (staticDisplays) ActiveDisplays() []domain.Display {
	return []domain.Display{{ID: 0, Bounds: image.Rect(0, 0, 1920, 1080)}}
}

type idleWatcher struct {
	events chan domain.DisplayEvent
}

func (w *idleWatcher) Start(context.Context) error { return nil }

func (w *idleWatcher) Stop(context.Context) error {
	close(w.events)
	return nil
}

func (w *idleWatcher) Events() <-chan domain.DisplayEvent { return w.events }

// newFeedServer serves a one-image archive and the matching JPEG
func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 16, 9)), nil); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	end := time.Now().AddDate(0, 0, 1).Format("20060102")
	start := time.Now().Format("20060102")

	mux := http.NewServeMux()
	mux.HandleFunc("/HPImageArchive.aspx", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"images":[{"startdate":%q,"enddate":%q,`+
			`"url":"/th?id=OHR.Harbour_EN-US42_1920x1080.jpg&pid=hp",`+
			`"urlbase":"/th?id=OHR.Harbour_EN-US42",`+
			`"copyright":"Harbour at night (© Jane Doe)",`+
			`"copyrightlink":"https://www.bing.com/search?q=harbour",`+
			`"title":"Night harbour"}]}`, start, end)
	})
	mux.HandleFunc("/th", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(buf.Bytes())
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// TestEndToEndStartup runs the real graph against a local feed with the desktop faked out
func TestEndToEndStartup(t *testing.T) {
	server := newFeedServer(t)
	pictures := t.TempDir()
	t.Setenv("BINGWALL_HOST", server.URL)
	t.Setenv("BINGWALL_PICTURES_DIR", pictures)

	exec := &recordingExecutor{}
	var eng *engine.Engine

	app := fx.New(
		CoreOptions,
		fx.Supply(
			config.Path(filepath.Join(t.TempDir(), "missing.toml")),
			LoggerOptions{},
		),
		fx.Provide(
			fx.Annotate(func() *recordingExecutor { return exec }, fx.As(new(domain.Executor))),
			fx.Annotate(func() staticDisplays { return staticDisplays{} }, fx.As(new(domain.DisplayProvider))),
			fx.Annotate(func() *idleWatcher {
				return &idleWatcher{events: make(chan domain.DisplayEvent)}
			}, fx.As(new(domain.DisplayWatcher))),
		),
		fx.Populate(&eng),
		fx.NopLogger, // Silence Fx logs during tests
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		t.Fatalf("App failed to start: %v", err)
	}

	want := filepath.Join(pictures, "Bing", "OHR.Harbour_EN-US42.jpg")
	if _, err := os.Stat(want); err != nil {
		t.Errorf("expected cached image at %s: %v", want, err)
	}
	if got := exec.calls(); len(got) != 1 || got[0] != want {
		t.Errorf("expected one SetWallpaper(%s), got %v", want, got)
	}
	state, ok := eng.State()
	if !ok || state.Index != 0 || state.Descriptor.Title != "Night harbour" {
		t.Errorf("unexpected state after startup: %+v (loaded=%v)", state, ok)
	}

	if err := app.Stop(ctx); err != nil {
		t.Fatalf("App failed to stop: %v", err)
	}
}
