// Command flatsqld is the engine's entry point: it loads the declarative
// document, publishes it into a Store, and serves protocol A and/or
// protocol B listeners against it until asked to shut down.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/mstgnz/flatsql/config"
	"github.com/mstgnz/flatsql/di"
	"github.com/mstgnz/flatsql/docload"
	"github.com/mstgnz/flatsql/logger"
	"github.com/mstgnz/flatsql/monitoring"
	"github.com/mstgnz/flatsql/protocol/mysql"
	"github.com/mstgnz/flatsql/protocol/pg"
	"github.com/mstgnz/flatsql/server"
	"github.com/mstgnz/flatsql/store"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code spec.md §6 specifies: 0 normal
// shutdown, 1 fatal startup error, 2 runtime panic.
func run(args []string) (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "flatsqld: panic: %v\n", r)
			code = 2
		}
	}()

	cfg, err := config.Parse(args)
	if err != nil {
		if errors.Is(err, config.ErrMissingDocument) {
			fmt.Fprintln(os.Stderr, "flatsqld:", err)
		}
		return 1
	}
	if cfg.PgAddr == "" && cfg.MysqlAddr == "" {
		fmt.Fprintln(os.Stderr, "flatsqld: at least one of -pg-addr/-mysql-addr must be set")
		return 1
	}

	// The container is flatsqld's single wiring point for the services
	// every listener needs (store, logger, metrics): register once here,
	// resolve by type everywhere else, so adding a protocol listener
	// later never means threading another constructor parameter through
	// run()'s call chain.
	container := di.NewContainer()

	log := logger.NewLogger(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err := container.Register(log); err != nil {
		fmt.Fprintln(os.Stderr, "flatsqld:", err)
		return 1
	}
	metrics := monitoring.NewMetricsCollector()
	if err := container.Register(metrics); err != nil {
		log.Error("failed to register metrics collector", map[string]interface{}{"error": err.Error()})
		return 1
	}

	db, err := docload.Load(cfg.DocumentPath)
	if err != nil {
		log.Error("failed to load document", map[string]interface{}{"path": cfg.DocumentPath, "error": err.Error()})
		return 1
	}
	st := store.New(db)
	if err := container.Register(st); err != nil {
		log.Error("failed to register store", map[string]interface{}{"error": err.Error()})
		return 1
	}
	log.Info("document loaded", map[string]interface{}{"database": db.Name, "tables": len(db.Tables)})

	var watcher *docload.Watcher
	if cfg.HotReload {
		watcher, err = docload.Watch(cfg.DocumentPath, st, log)
		if err != nil {
			log.Error("failed to start document watcher", map[string]interface{}{"error": err.Error()})
			return 1
		}
		defer watcher.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	supervisors, err := startListeners(ctx, cfg, container)
	if err != nil {
		log.Error("failed to start listeners", map[string]interface{}{"error": err.Error()})
		return 1
	}

	sampleRuntimeMetrics(ctx, metrics)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info("shutting down", nil)
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	for _, sv := range supervisors {
		if err := sv.Shutdown(shutdownCtx); err != nil {
			log.Warn("supervisor shutdown did not complete cleanly", map[string]interface{}{"error": err.Error()})
		}
	}
	return 0
}

func startListeners(ctx context.Context, cfg *config.Config, container *di.Container) ([]*server.Supervisor, error) {
	var st *store.Store
	if err := container.Resolve(&st); err != nil {
		return nil, fmt.Errorf("resolving store: %w", err)
	}
	var log *logger.Logger
	if err := container.Resolve(&log); err != nil {
		return nil, fmt.Errorf("resolving logger: %w", err)
	}
	var metrics *monitoring.MetricsCollector
	if err := container.Resolve(&metrics); err != nil {
		return nil, fmt.Errorf("resolving metrics collector: %w", err)
	}

	var supervisors []*server.Supervisor

	if cfg.PgAddr != "" {
		ln, err := net.Listen("tcp", cfg.PgAddr)
		if err != nil {
			return nil, fmt.Errorf("binding protocol A address %s: %w", cfg.PgAddr, err)
		}
		handler := func(ctx context.Context, conn net.Conn) error {
			err := pg.Serve(ctx, conn, st, cfg.Username, cfg.Password, log)
			recordConnectionOutcome(metrics, err)
			return err
		}
		sv := server.NewSupervisor(ln, cfg.MaxConnections, handler, log)
		supervisors = append(supervisors, sv)
		go func() {
			if err := sv.Serve(ctx); err != nil {
				log.Error("protocol A supervisor stopped", map[string]interface{}{"error": err.Error()})
			}
		}()
		log.Info("protocol A listening", map[string]interface{}{"addr": cfg.PgAddr})
	}

	if cfg.MysqlAddr != "" {
		ln, err := net.Listen("tcp", cfg.MysqlAddr)
		if err != nil {
			return nil, fmt.Errorf("binding protocol B address %s: %w", cfg.MysqlAddr, err)
		}
		handler := func(ctx context.Context, conn net.Conn) error {
			err := mysql.Serve(ctx, conn, st, cfg.Username, cfg.Password, log)
			recordConnectionOutcome(metrics, err)
			return err
		}
		sv := server.NewSupervisor(ln, cfg.MaxConnections, handler, log)
		supervisors = append(supervisors, sv)
		go func() {
			if err := sv.Serve(ctx); err != nil {
				log.Error("protocol B supervisor stopped", map[string]interface{}{"error": err.Error()})
			}
		}()
		log.Info("protocol B listening", map[string]interface{}{"addr": cfg.MysqlAddr})
	}

	return supervisors, nil
}

func recordConnectionOutcome(metrics *monitoring.MetricsCollector, err error) {
	metrics.IncrementProcessedObjects()
	if err != nil {
		metrics.IncrementFailedOperations()
	}
}

// sampleRuntimeMetrics periodically samples goroutine and heap usage so
// GetMetrics reflects current load, not just the startup snapshot.
func sampleRuntimeMetrics(ctx context.Context, metrics *monitoring.MetricsCollector) {
	ticker := time.NewTicker(30 * time.Second)
	go func() {
		defer ticker.Stop()
		var mem runtime.MemStats
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.SetGoroutineCount(int64(runtime.NumGoroutine()))
				runtime.ReadMemStats(&mem)
				metrics.SetMemoryUsage(int64(mem.Alloc))
			}
		}
	}()
}
