package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/example/room-calendar/internal/application"
	"github.com/example/room-calendar/internal/config"
	"github.com/example/room-calendar/internal/logging"
	"github.com/example/room-calendar/internal/metrics"
	"github.com/example/room-calendar/internal/persistence"
	"github.com/example/room-calendar/internal/persistence/jsonfile"
	"github.com/example/room-calendar/internal/persistence/memory"
	"github.com/example/room-calendar/internal/persistence/redisstore"
	"github.com/example/room-calendar/internal/persistence/sqlite"
	"github.com/example/room-calendar/internal/scheduler"
)

// Exit codes.
const (
	exitOK       = 0
	exitError    = 1
	exitUsage    = 2
	exitConflict = 3
	exitNotFound = 4
)

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitError)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitError)
	}

	os.Exit(run(ctx, cfg, os.Args[1:], os.Stdout, os.Stderr))
}

// app holds the collaborators shared by every subcommand.
type app struct {
	cfg      config.Config
	store    persistence.Store
	rooms    *application.RoomCatalog
	logger   *slog.Logger
	recorder *metrics.Recorder
	newID    func() string
	stdout   io.Writer
	stderr   io.Writer
}

func run(ctx context.Context, cfg config.Config, args []string, stdout, stderr io.Writer) int {
	logger := logging.New(stderr, cfg.Logging.Level)
	ctx = logging.ContextWithLogger(ctx, logger)

	if len(args) == 0 {
		printUsage(stderr)
		return exitUsage
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open storage", "driver", cfg.Store.Driver, "error", err)
		return exitError
	}
	defer func() {
		if cerr := closeStore(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	registry := prometheus.NewRegistry()
	recorder, err := metrics.NewRecorder(registry)
	if err != nil {
		logger.Error("failed to register metrics", "error", err)
		return exitError
	}
	if path := cfg.Metrics.TextfilePath; path != "" {
		defer func() {
			if werr := metrics.WriteTextfile(path, registry); werr != nil {
				logger.Error("failed to write metrics", "path", path, "error", werr)
			}
		}()
	}

	a := &app{
		cfg:      cfg,
		store:    store,
		rooms:    application.NewRoomCatalog(store, logger),
		logger:   logger,
		recorder: recorder,
		newID:    uuid.NewString,
		stdout:   stdout,
		stderr:   stderr,
	}

	commands := map[string]func(context.Context, []string) error{
		"book":     a.book,
		"move":     a.move,
		"cancel":   a.cancel,
		"list":     a.list,
		"occupied": a.occupied,
		"rooms":    a.roomsCommand,
		"export":   a.export,
	}
	command, ok := commands[args[0]]
	if !ok {
		printUsage(stderr)
		return exitUsage
	}

	return exitCode(command(ctx, args[1:]), stderr)
}

func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return exitOK
	}
	fmt.Fprintln(stderr, err)

	var cErr *application.ConflictError
	switch {
	case errors.Is(err, errUsage):
		return exitUsage
	case errors.As(err, &cErr):
		return exitConflict
	case errors.Is(err, application.ErrNotFound):
		return exitNotFound
	}
	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		for field, message := range vErr.FieldErrors {
			fmt.Fprintf(stderr, "  %s: %s\n", field, message)
		}
		return exitUsage
	}
	return exitError
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `usage: calendar <command> [flags]

commands:
  book      create a booking
  move      replace a booking selected by -id or -old-<field>
  cancel    delete a booking selected by -id or field flags
  list      list bookings, optionally by -date, -from/-to, -month, -next or -resource
  occupied  report whether -date has any booking
  rooms     list | add | remove catalog rooms
  export    write bookings as -format ics or xlsx`)
}

func openStore(ctx context.Context, cfg config.Config) (persistence.Store, func() error, error) {
	switch cfg.Store.Driver {
	case config.DriverJSON:
		return jsonfile.New(cfg.Store.DataDir), func() error { return nil }, nil

	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.Store.SQLiteDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		return store, store.Close, nil

	case config.DriverRedis:
		redisCfg := cfg.Store.Redis
		store := redisstore.New(redisstore.NewClient(redisstore.Options{
			Address:  redisCfg.Address,
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
			PoolSize: redisCfg.PoolSize,
		}), redisCfg.KeyPrefix)
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		return store, store.Close, nil

	case config.DriverMemory:
		store := memory.New()
		return store, store.Close, nil
	}
	return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
}

// service wires a scheduling service for the named kind.
func (a *app) service(kindName string) (*application.SchedulingService, error) {
	kind, err := persistence.KindByName(kindName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	validator := scheduler.Validator{ExemptSameContact: a.cfg.Scheduling.ExemptSameContact}
	repo := application.NewBookingRepository(a.store, kind, application.RepositoryOptions{
		StrictReads: a.cfg.Scheduling.StrictReads,
		Logger:      a.logger,
	})
	svc := application.NewSchedulingService(repo, application.ServiceOptions{
		Validator:   &validator,
		Rooms:       a.rooms,
		IDGenerator: a.newID,
		Logger:      a.logger,
		Metrics:     a.recorder,
	})
	return svc, nil
}
