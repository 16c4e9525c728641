// Package config parses the command-line invocation surface spec.md §6
// describes, the same flag-based shape the teacher's cmd/sqlmapper used
// for its (much smaller) dialect-conversion CLI.
package config

import (
	"errors"
	"flag"

	"github.com/mstgnz/flatsql/logger"
)

// Config is the fully resolved set of options cmd/flatsqld boots from.
type Config struct {
	// DocumentPath is the path to the declarative YAML document; required.
	DocumentPath string

	// PgAddr/MysqlAddr are the bind addresses for protocol A and B; empty
	// disables that listener entirely.
	PgAddr    string
	MysqlAddr string

	// Username/Password are the CLI credentials; credentials the document
	// declares take precedence over them (server.Resolve). Anonymous is
	// true when neither CLI value is set; it does not look at the
	// document.
	Username string
	Password string

	// MaxConnections bounds the supervisor's concurrent-connection
	// semaphore (spec.md §5's "default around 10").
	MaxConnections int

	// HotReload turns on docload's fsnotify-backed watcher.
	HotReload bool

	// LogLevel and LogFormat configure logger.NewLogger.
	LogLevel  logger.LogLevel
	LogFormat logger.LogFormat
}

// ErrMissingDocument is returned by Parse when no document path is given;
// callers map this to spec.md §6's exit code 1 (fatal startup error).
var ErrMissingDocument = errors.New("config: -doc is required")

// Parse builds a Config from args (os.Args[1:] in production, an
// explicit slice in tests).
func Parse(args []string) (*Config, error) {
	fs := flag.NewFlagSet("flatsqld", flag.ContinueOnError)

	doc := fs.String("doc", "", "path to the declarative database document (required)")
	pgAddr := fs.String("pg-addr", ":5432", "protocol A (Postgres-family) listen address, empty to disable")
	mysqlAddr := fs.String("mysql-addr", ":3306", "protocol B (MySQL-family) listen address, empty to disable")
	username := fs.String("username", "", "credential override: username")
	password := fs.String("password", "", "credential override: password")
	maxConn := fs.Int("max-connections", 10, "maximum concurrent connections")
	hotReload := fs.Bool("hot-reload", false, "watch the document path and republish on change")
	verbose := fs.Bool("verbose", false, "enable debug-level logging")
	jsonLogs := fs.Bool("json-logs", false, "emit logs as JSON instead of text")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *doc == "" {
		return nil, ErrMissingDocument
	}

	level := logger.INFO
	if *verbose {
		level = logger.DEBUG
	}
	format := logger.TEXT
	if *jsonLogs {
		format = logger.JSON
	}

	return &Config{
		DocumentPath:   *doc,
		PgAddr:         *pgAddr,
		MysqlAddr:      *mysqlAddr,
		Username:       *username,
		Password:       *password,
		MaxConnections: *maxConn,
		HotReload:      *hotReload,
		LogLevel:       level,
		LogFormat:      format,
	}, nil
}

// Anonymous reports whether no credentials were configured at all, in
// which case both protocol listeners must accept any username/password
// pair per spec.md §6.
func (c *Config) Anonymous() bool {
	return c.Username == "" && c.Password == ""
}
