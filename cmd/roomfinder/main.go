package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/example/room-finder/internal/application"
	"github.com/example/room-finder/internal/availability"
	"github.com/example/room-finder/internal/calendar"
	"github.com/example/room-finder/internal/config"
	"github.com/example/room-finder/internal/directory"
	httptransport "github.com/example/room-finder/internal/http"
	"github.com/example/room-finder/internal/metrics"
	"github.com/example/room-finder/internal/persistence"
	"github.com/example/room-finder/internal/persistence/memory"
	"github.com/example/room-finder/internal/persistence/sqlite"
	"github.com/example/room-finder/internal/recurrence"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout).RunContext(ctx, os.Args); err != nil {
		slog.Error("room finder failed", "error", err)
		os.Exit(1)
	}
}

func newApp(stdout io.Writer) *cli.App {
	return &cli.App{
		Name:   "roomfinder",
		Usage:  "Find meeting times and book rooms.",
		Writer: stdout,
		Commands: []*cli.Command{
			serveCommand(),
			optimalCommand(),
			expandCommand(),
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API.",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "env-file", Usage: "Load variables from these files before reading the environment."},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load(c.StringSlice("env-file")...)
			if err != nil {
				return err
			}
			logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

			server, cleanup, err := buildServer(c.Context, cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			go func() {
				<-c.Context.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("failed to shutdown server", "error", err)
				}
			}()

			logger.Info("room finder API listening", "addr", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server encountered error: %w", err)
			}
			return nil
		},
	}
}

type store interface {
	persistence.ReservationStore
	persistence.PreferenceStore
	Close() error
}

// openStore keeps everything in memory when dsn is blank.
func openStore(ctx context.Context, dsn string, logger *slog.Logger) (store, error) {
	if dsn == "" {
		logger.Info("using in-memory reservation store")
		return memory.New(), nil
	}

	st, err := sqlite.Open(ctx, sqlite.DefaultConfig(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return st, nil
}

type engine struct {
	catalog *directory.Catalog
	service *application.ReservationService
}

func newEngine(cfg config.Config, deps application.Dependencies) (engine, error) {
	catalog, err := directory.Generate(directory.GenerateOptions{Seed: cfg.DirectorySeed, Employees: cfg.EmployeeCount})
	if err != nil {
		return engine{}, fmt.Errorf("failed to generate directory: %w", err)
	}
	index, err := availability.NewIndex(availability.NewGenerator(catalog), cfg.AvailabilityCache)
	if err != nil {
		return engine{}, fmt.Errorf("failed to build availability index: %w", err)
	}

	deps.Catalog = catalog
	deps.Availability = index
	svc, err := application.NewReservationService(deps)
	if err != nil {
		return engine{}, err
	}
	return engine{catalog: catalog, service: svc}, nil
}

func buildServer(ctx context.Context, cfg config.Config, logger *slog.Logger) (*http.Server, func(), error) {
	st, err := openStore(ctx, cfg.SQLiteDSN, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if cerr := st.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}

	recorder := metrics.New()
	eng, err := newEngine(cfg, application.Dependencies{
		Reservations: st,
		Preferences:  st,
		Logger:       logger,
		Observer:     recorder,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if err := eng.service.Restore(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to restore reservations: %w", err)
	}

	exporter := calendar.NewExporter(eng.catalog, time.Local, time.Now)
	router := httptransport.NewRouter(httptransport.RouterConfig{
		Directory:    httptransport.NewDirectoryHandler(eng.service, logger),
		Sessions:     httptransport.NewSessionHandler(eng.service, logger),
		Reservations: httptransport.NewReservationHandler(eng.service, exporter, logger),
		Employees:    eng.catalog,
		Metrics:      recorder.Handler(),
		Requests:     recorder,
		Middleware:   []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return server, cleanup, nil
}

func optimalCommand() *cli.Command {
	return &cli.Command{
		Name:  "optimal",
		Usage: "Rank meeting windows for employees of the generated directory.",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "required", Aliases: []string{"r"}, Usage: "Required attendee names.", Required: true},
			&cli.StringSliceFlag{Name: "optional", Aliases: []string{"o"}, Usage: "Optional attendee names."},
			&cli.StringFlag{Name: "date", Usage: "Meeting date (YYYY-MM-DD). Defaults to today."},
			&cli.IntFlag{Name: "duration", Value: 60, Usage: "Meeting length in minutes."},
			&cli.StringFlag{Name: "floor", Usage: "Restrict rooms to this floor id."},
			&cli.Uint64Flag{Name: "seed", Value: 1, Usage: "Directory seed."},
			&cli.IntFlag{Name: "employees", Value: directory.DefaultEmployeeCount, Usage: "Directory size."},
		},
		Action: func(c *cli.Context) error {
			cfg := config.Config{DirectorySeed: c.Uint64("seed"), EmployeeCount: c.Int("employees"), AvailabilityCache: 256}
			eng, err := newEngine(cfg, application.Dependencies{
				Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
			})
			if err != nil {
				return err
			}

			required, err := resolveEmployees(eng.catalog, c.StringSlice("required"))
			if err != nil {
				return err
			}
			optional, err := resolveEmployees(eng.catalog, c.StringSlice("optional"))
			if err != nil {
				return err
			}

			date := c.String("date")
			if date == "" {
				date = time.Now().Format(recurrence.DateLayout)
			}
			windows, err := eng.service.RankWindows(c.Context, application.RankParams{
				Required:        required,
				Optional:        optional,
				Date:            date,
				DurationMinutes: c.Int("duration"),
				FloorID:         c.String("floor"),
			})
			if err != nil {
				return fmt.Errorf("failed to rank windows: %w", err)
			}

			enc := json.NewEncoder(c.App.Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(windows)
		},
	}
}

func resolveEmployees(catalog *directory.Catalog, names []string) ([]string, error) {
	ids := make([]string, 0, len(names))
	for _, name := range names {
		emp, err := catalog.ResolveEmployee(name)
		if err != nil {
			return nil, fmt.Errorf("unknown employee %q: %w", name, err)
		}
		ids = append(ids, emp.ID)
	}
	return ids, nil
}

func expandCommand() *cli.Command {
	return &cli.Command{
		Name:  "expand",
		Usage: "Print the dates a recurrence pattern produces.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "start", Usage: "First date (YYYY-MM-DD).", Required: true},
			&cli.StringFlag{Name: "end", Usage: "Last possible date (YYYY-MM-DD).", Required: true},
			&cli.StringFlag{Name: "pattern", Value: string(recurrence.PatternWeekly), Usage: "none, daily, weekly, biweekly or monthly."},
		},
		Action: func(c *cli.Context) error {
			pattern, err := recurrence.ParsePattern(c.String("pattern"))
			if err != nil {
				return err
			}
			dates, err := recurrence.Expand(c.String("start"), c.String("end"), pattern)
			if err != nil {
				return err
			}
			for _, d := range dates {
				if _, err := fmt.Fprintln(c.App.Writer, d); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
