// Package wire provides dependency injection for eisen.
// It creates singleton services with lazy initialization.
package wire

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"sync"

	cliadapter "github.com/example/eisen/internal/adapters/cli"
	"github.com/example/eisen/internal/adapters/filesystem"
	"github.com/example/eisen/internal/adapters/sqlite"
	"github.com/example/eisen/internal/app"
	"github.com/example/eisen/internal/config"
	"github.com/example/eisen/internal/core/dates"
	"github.com/example/eisen/internal/db"
	"github.com/example/eisen/internal/ports/primary"
)

var (
	cfg      config.Config
	logger   *slog.Logger
	warnOut  io.Writer = os.Stderr
	settings sync.Mutex

	database     *sql.DB
	normalizer   *dates.Normalizer
	taskService  primary.TaskService
	focusService primary.FocusService
	once         sync.Once
	started      bool
)

// Configure sets the configuration and logger used when services are first
// built. It has no effect once any service has been requested.
func Configure(c config.Config, l *slog.Logger) {
	settings.Lock()
	defer settings.Unlock()
	cfg = c
	logger = l
}

// TaskService returns the singleton TaskService instance.
func TaskService() primary.TaskService {
	once.Do(initServices)
	return taskService
}

// FocusService returns the singleton FocusService instance.
func FocusService() primary.FocusService {
	once.Do(initServices)
	return focusService
}

// Dates returns the date normalizer for the configured timezone.
func Dates() *dates.Normalizer {
	once.Do(initServices)
	return normalizer
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	settings.Lock()
	c, l := cfg, logger
	settings.Unlock()
	if c.HomeDir == "" {
		loaded, err := config.Load()
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		c = loaded
	}
	if l == nil {
		l = slog.Default()
	}

	loc, err := c.Location()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	normalizer = dates.NewNormalizer(loc)

	database, err = db.Open(c.DBPath)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// Create repository adapters (secondary ports) with the injected DB
	store := sqlite.NewSnapshotStore(database)

	ctx := context.Background()
	tasks, err := app.NewTaskService(ctx, store, app.TaskServiceOptions{
		Dates:    normalizer,
		Logger:   l,
		Debounce: c.Debounce(),
	})
	if err != nil {
		log.Fatalf("failed to load tasks: %v", err)
	}
	timer, err := app.NewFocusService(ctx, store, tasks, app.FocusServiceOptions{
		Defaults: c.FocusConfig(),
		Logger:   l,
		Debounce: c.Debounce(),
	})
	if err != nil {
		log.Fatalf("failed to load focus timer: %v", err)
	}

	for _, loadErr := range []error{tasks.LoadError(), timer.LoadError()} {
		if loadErr != nil {
			fmt.Fprintf(warnOut, "warning: %v\n", loadErr)
		}
	}

	taskService = tasks
	focusService = timer
	started = true
}

// Shutdown flushes pending writes and closes the database. It is a no-op when
// no service was ever built.
func Shutdown(ctx context.Context) error {
	if !started {
		return nil
	}
	err := errors.Join(taskService.Flush(ctx), focusService.Flush(ctx))
	if cerr := database.Close(); cerr != nil {
		err = errors.Join(err, fmt.Errorf("failed to close database: %w", cerr))
	}
	return err
}

// TaskAdapter returns a new TaskAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func TaskAdapter() *cliadapter.TaskAdapter {
	return TaskAdapterWithOutput(os.Stdout)
}

// TaskAdapterWithOutput returns a new TaskAdapter writing to the given output.
func TaskAdapterWithOutput(out io.Writer) *cliadapter.TaskAdapter {
	once.Do(initServices)
	return cliadapter.NewTaskAdapter(taskService, normalizer, out)
}

// FocusAdapter returns a new FocusAdapter writing to stdout.
func FocusAdapter() *cliadapter.FocusAdapter {
	return FocusAdapterWithOutput(os.Stdout)
}

// FocusAdapterWithOutput returns a new FocusAdapter writing to the given output.
func FocusAdapterWithOutput(out io.Writer) *cliadapter.FocusAdapter {
	once.Do(initServices)
	return cliadapter.NewFocusAdapter(focusService, taskService, normalizer, out)
}

// FocusRunner returns a runner driving the singleton timer.
func FocusRunner() *app.FocusRunner {
	once.Do(initServices)
	return app.NewFocusRunner(focusService)
}

// ExportWriter returns the file writer used by `eisen export --out`.
func ExportWriter() *filesystem.ExportWriter {
	return filesystem.NewExportWriter()
}

// FileWatcher returns the watcher used by `eisen import --watch`.
func FileWatcher() *filesystem.FileWatcher {
	settings.Lock()
	defer settings.Unlock()
	return filesystem.NewFileWatcher(filesystem.DefaultSettle, logger)
}
