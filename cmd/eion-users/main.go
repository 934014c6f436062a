package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eion/eion-users/internal/audit"
	"github.com/eion/eion-users/internal/config"
	"github.com/eion/eion-users/internal/storage"
	"github.com/eion/eion-users/internal/users"
)

const usage = `usage: eion-users [flags] <command> [args]

commands:
  migrate                  create tables and indexes (sql backends)
  health                   check backend connectivity
  register <email> <name>  register a new user
  rename <id> <name>       change a user's name
  deactivate <id>          delete a user
  get <id>                 show a user
  list                     show all users
  events [user-id]         show recent audit events
`

// AppState holds all application services
type AppState struct {
	Logger      *zap.Logger
	UserService users.UserService
	AuditLog    audit.Logger
	Health      *storage.HealthManager

	closers    []io.Closer
	migrations []*bun.DB
}

// Close releases backend connections
func (as *AppState) Close() {
	for _, c := range as.closers {
		if err := c.Close(); err != nil {
			as.Logger.Warn("Failed to close backend", zap.Error(err))
		}
	}
}

func main() {
	os.Exit(run())
}

func run() int {
	eventsLimit := flag.Int("limit", 20, "maximum number of audit events to print")
	timeout := flag.Duration("timeout", 30*time.Second, "deadline for the whole command")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		return 2
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		return 1
	}

	if err := config.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		return 1
	}

	logger := initLogger().With(zap.String("run_id", uuid.NewString()))
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	as, err := newAppState(ctx, logger)
	if err != nil {
		logger.Error("Failed to initialize application state", zap.Error(err))
		return 1
	}
	defer as.Close()

	out, err := dispatch(ctx, as, args, *eventsLimit)
	if err != nil {
		if errors.Is(err, errUsage) {
			flag.Usage()
			return 2
		}
		logger.Error("Command failed", zap.String("command", args[0]), zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if out != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			logger.Error("Failed to write output", zap.Error(err))
			return 1
		}
	}
	return 0
}

var errUsage = errors.New("usage")

func dispatch(ctx context.Context, as *AppState, args []string, eventsLimit int) (interface{}, error) {
	cmd, params := args[0], args[1:]

	need := func(n int) error {
		if len(params) != n {
			return errUsage
		}
		return nil
	}

	switch cmd {
	case "migrate":
		if err := need(0); err != nil {
			return nil, err
		}
		// tables are migrated while the backend is opened
		status := "migrated"
		if len(as.migrations) == 0 {
			status = "skipped"
		}
		return map[string]string{"status": status, "backend": config.Store().Backend}, nil

	case "health":
		if err := need(0); err != nil {
			return nil, err
		}
		results := make(map[string]string)
		for name, err := range as.Health.RuntimeHealthCheck(ctx) {
			results[name] = "ok"
			if err != nil {
				results[name] = err.Error()
			}
		}
		return results, as.Health.StartupHealthCheck(ctx)

	case "register":
		if err := need(2); err != nil {
			return nil, err
		}
		return as.UserService.RegisterUser(ctx, params[0], params[1])

	case "rename":
		if err := need(2); err != nil {
			return nil, err
		}
		return as.UserService.UpdateUserName(ctx, params[0], params[1])

	case "deactivate":
		if err := need(1); err != nil {
			return nil, err
		}
		deactivated, err := as.UserService.DeactivateUser(ctx, params[0])
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"id": params[0], "deactivated": deactivated}, nil

	case "get":
		if err := need(1); err != nil {
			return nil, err
		}
		return as.UserService.GetUser(ctx, params[0])

	case "list":
		if err := need(0); err != nil {
			return nil, err
		}
		return as.UserService.ListUsers(ctx)

	case "events":
		switch len(params) {
		case 0:
			return as.AuditLog.RecentEvents(ctx, eventsLimit)
		case 1:
			return as.AuditLog.UserEvents(ctx, params[0], eventsLimit)
		default:
			return nil, errUsage
		}

	default:
		return nil, errUsage
	}
}

// newAppState opens the configured backend and wires the services on top of it
func newAppState(ctx context.Context, logger *zap.Logger) (*AppState, error) {
	as := &AppState{
		Logger: logger,
		Health: storage.NewHealthManager(logger),
	}

	var (
		store  users.UserStore
		events audit.EventStore
	)

	backend := config.Store().Backend
	logger.Info("Opening user store", zap.String("backend", backend))

	switch backend {
	case "memory":
		logger.Warn("Memory backend does not persist between invocations")
		store = users.NewInMemoryStore()
		events = audit.NewInMemoryEventStore()

	case "postgres":
		pgConfig := config.Postgres()
		logger.Info("Database configuration",
			zap.String("host", pgConfig.Host),
			zap.Int("port", pgConfig.Port),
			zap.String("database", pgConfig.Database),
			zap.String("user", pgConfig.User))

		db, err := storage.OpenPostgres(pgConfig.DSN(), pgConfig.MaxOpenConnections)
		if err != nil {
			return nil, err
		}
		store, events = as.useDatabase(db)

	case "sqlite":
		db, err := storage.OpenSQLite(config.SQLite().Path)
		if err != nil {
			return nil, err
		}
		store, events = as.useDatabase(db)

	case "redis":
		redisConfig := config.Redis()
		client, err := storage.OpenRedis(redisConfig.Addr(), redisConfig.Password, redisConfig.Database)
		if err != nil {
			return nil, err
		}
		as.useRedis(client)
		logger.Warn("Audit events are kept in memory for the redis backend")
		store = users.NewRedisStore(client, redisConfig.KeyPrefix)
		events = audit.NewInMemoryEventStore()

	default:
		return nil, fmt.Errorf("unsupported store backend: %s", backend)
	}

	if err := as.migrate(ctx); err != nil {
		as.Close()
		return nil, err
	}

	as.AuditLog = audit.NewRecorder(events, logger)
	as.UserService = users.NewUserServiceWithAudit(store, as.AuditLog, logger)
	return as, nil
}

func (as *AppState) useDatabase(db *bun.DB) (users.UserStore, audit.EventStore) {
	as.closers = append(as.closers, db)
	as.Health.AddChecker(storage.NewDatabaseHealthChecker(db))
	as.migrations = append(as.migrations, db)
	return users.NewBunStore(db), audit.NewBunEventStore(db)
}

func (as *AppState) useRedis(client *redis.Client) {
	as.closers = append(as.closers, client)
	as.Health.AddChecker(storage.NewRedisHealthChecker(client))
}

func (as *AppState) migrate(ctx context.Context) error {
	for _, db := range as.migrations {
		if err := storage.Migrate(ctx, db); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
		as.Logger.Info("Schema is up to date", zap.String("dialect", storage.DialectName(db)))
	}
	return nil
}

func initLogger() *zap.Logger {
	logConfig := config.Logger()

	var config zap.Config
	if logConfig.Format == "json" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
	}

	// Set log level
	switch logConfig.Level {
	case "debug":
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		config.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	return logger
}
