package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/genricoloni/bingwall/internal/cache"
	"github.com/genricoloni/bingwall/internal/config"
	"github.com/genricoloni/bingwall/internal/domain"
	"github.com/genricoloni/bingwall/internal/engine"
	"github.com/genricoloni/bingwall/internal/executor"
	"github.com/genricoloni/bingwall/internal/feed"
	"github.com/genricoloni/bingwall/internal/fetcher"
	"github.com/genricoloni/bingwall/internal/monitor"
	"github.com/genricoloni/bingwall/internal/processor"
	"github.com/genricoloni/bingwall/internal/tui"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const (
	startTimeout = time.Minute
	stopTimeout  = 15 * time.Second
)

var (
	// Global flags
	cfgFile string
	logFile string
	verbose bool
)

// LoggerOptions controls the zap logger built for the app
type LoggerOptions struct {
	Verbose bool
	File    string // empty means stderr
}

// CoreOptions wires everything that does not touch the desktop
var CoreOptions = fx.Options(
	fx.StartTimeout(startTimeout),
	fx.Provide(
		newLogger,
		fx.Annotate(config.NewAppConfig, fx.As(new(domain.Config))),
		fx.Annotate(fetcher.NewHTTPFetcher, fx.As(new(domain.Fetcher)), fx.As(new(domain.DocumentFetcher))),
		fx.Annotate(processor.NewVerifier, fx.As(new(domain.ImageVerifier))),
		fx.Annotate(newFeedClient, fx.As(new(domain.FeedClient))),
		fx.Annotate(cache.New, fx.As(new(domain.ImageCache))),
		newEngine,
	),
	fx.Invoke(registerHooks),
)

// PlatformOptions provides the display and wallpaper integrations of the host OS
var PlatformOptions = fx.Options(
	fx.Provide(
		fx.Annotate(monitor.NewScreenProvider, fx.As(new(domain.DisplayProvider))),
		fx.Annotate(monitor.NewDisplayMonitor, fx.As(new(domain.DisplayWatcher))),
		fx.Annotate(executor.NewExecutor, fx.As(new(domain.Executor))),
	),
)

// AppOptions is the complete dependency graph; it expects a config.Path and
// LoggerOptions to be supplied
var AppOptions = fx.Options(CoreOptions, PlatformOptions)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bingwall",
		Short: "Bing image of the day as your wallpaper",
		Long: `Bingwall keeps the desktop background in sync with the Bing image of the day.
Run without a subcommand it stays in the background and checks the feed every hour;
the tui subcommand adds an interactive view to step through the last eight days.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd.Context())
		},
	}

	// Persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/bingwall/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newTUICmd())

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run with an interactive terminal view",
		RunE: func(cmd *cobra.Command, args []string) error {
			// the terminal belongs to the view, logs go to a file
			if logFile == "" {
				logFile = filepath.Join(config.DefaultConfigDir(), "bingwall.log")
			}
			return runTUI(cmd.Context())
		},
	}
}

// newApp builds the fx application from the global flags
func newApp(opts ...fx.Option) *fx.App {
	return fx.New(
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Supply(
			config.Path(cfgFile),
			LoggerOptions{Verbose: verbose, File: logFile},
		),
		AppOptions,
		fx.Options(opts...),
	)
}

func runDaemon(ctx context.Context) error {
	app := newApp()
	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}

	// Wait for interrupt signal
	<-ctx.Done()

	return stopApp(app)
}

func runTUI(ctx context.Context) error {
	var eng *engine.Engine
	app := newApp(fx.Populate(&eng))
	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}

	runErr := tui.Run(ctx, eng)
	if err := stopApp(app); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func stopApp(app *fx.App) error {
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return app.Stop(ctx)
}

// newLogger creates a new zap logger instance
func newLogger(opts LoggerOptions) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if opts.Verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		cfg.OutputPaths = []string{opts.File}
		cfg.ErrorOutputPaths = []string{opts.File}
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger, nil
}

func newFeedClient(logger *zap.Logger, f domain.DocumentFetcher, cfg domain.Config) *feed.Client {
	return feed.NewClient(logger, f, cfg)
}

func newEngine(
	logger *zap.Logger,
	fc domain.FeedClient,
	ic domain.ImageCache,
	displays domain.DisplayProvider,
	watcher domain.DisplayWatcher,
	exec domain.Executor,
) *engine.Engine {
	return engine.NewEngine(logger, fc, ic, displays, watcher, exec)
}

// registerHooks sets up application lifecycle hooks
func registerHooks(lc fx.Lifecycle, logger *zap.Logger, watcher domain.DisplayWatcher, eng *engine.Engine) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Bingwall Daemon Started")
			if err := watcher.Start(ctx); err != nil {
				return fmt.Errorf("failed to start display watcher: %w", err)
			}
			// The scheduled check retries, so a failed first load is not fatal
			if err := eng.Start(ctx); err != nil {
				logger.Error("Initial wallpaper load failed", zap.Error(err))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down")
			if err := eng.Stop(ctx); err != nil {
				logger.Warn("Engine did not stop cleanly", zap.Error(err))
			}
			if err := watcher.Stop(ctx); err != nil {
				logger.Warn("Display watcher did not stop cleanly", zap.Error(err))
			}
			_ = logger.Sync()
			return nil
		},
	})
}
