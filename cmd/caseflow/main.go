package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sesamtech/caseflow/internal/api"
	"github.com/sesamtech/caseflow/internal/caseapi"
	"github.com/sesamtech/caseflow/internal/flow"
	"github.com/sesamtech/caseflow/internal/lockfile"
	"github.com/sesamtech/caseflow/internal/soap"
	"github.com/sesamtech/caseflow/internal/store"
	"github.com/sesamtech/caseflow/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for caseflow state data.
	DefaultStateDir = "/var/lib/caseflow"
	// DefaultDBFileName is the default SQLite database filename.
	DefaultDBFileName = "caseflow.db"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	// File-based DSNs need the state directory, and only one instance may
	// own it.
	var lock *lockfile.Lock
	if isFileDSN(*flags.dbDSN) {
		stateDir := filepath.Dir(*flags.dbDSN)
		acquired, err := lockfile.AcquireLock(stateDir)
		if err != nil {
			slog.Error("Failed to lock state directory", "error", err, "state_dir", stateDir)
			os.Exit(1)
		}
		lock = acquired
		defer lock.Release()
	}

	caseOpts := buildCaseAPIOptions(flags)
	soapOpts := buildSOAPOptions(flags)
	storeOpts := buildStoreOptions(flags)
	flowOpts := buildFlowOptions(flags)
	apiOpts := buildAPIOptions(flags)

	slog.Info("Bootstrapping caseflow with configured modules")
	slog.Debug("Final configuration", "dsn_set", *flags.dbDSN != "", "api_addr", *flags.apiAddr, "redirect_delay", *flags.redirectDelay)
	if err := api.Run(caseOpts, soapOpts, storeOpts, flowOpts, apiOpts); err != nil {
		slog.Error("caseflow failed to run", "error", err)
		if lock != nil {
			lock.Release()
		}
		os.Exit(1)
	}
}

// Config holds environment configuration.
type Config struct {
	StateDir      string
	DatabaseURL   string
	APIAddr       string
	CaseAPIURL    string
	CaseAPIToken  string
	SOAPEndpoint  string
	RedirectDelay time.Duration
}

// Flags holds command line flag values.
type Flags struct {
	stateDir      *string
	dbDSN         *string
	apiAddr       *string
	caseAPIURL    *string
	caseAPIToken  *string
	soapEndpoint  *string
	redirectDelay *time.Duration
}

// initializeLogger sets up structured logging.
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("CASEFLOW_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and a
// .env file.
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		StateDir:      os.Getenv("CASEFLOW_STATE_DIR"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		APIAddr:       os.Getenv("API_ADDR"),
		CaseAPIURL:    os.Getenv("CASE_API_BASE_URL"),
		CaseAPIToken:  os.Getenv("CASE_API_TOKEN"),
		SOAPEndpoint:  os.Getenv("SOAP_API_ENDPOINT"),
		RedirectDelay: util.ParseDurationEnv("COMPLETE_REDIRECT_DELAY", flow.DefaultCompletionDelay),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No CASEFLOW_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	// If no database URL is provided, default to SQLite in the state
	// directory.
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"CASEFLOW_STATE_DIR", config.StateDir,
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"API_ADDR", config.APIAddr,
		"CASE_API_BASE_URL_SET", config.CaseAPIURL != "",
		"CASE_API_TOKEN_SET", config.CaseAPIToken != "",
		"SOAP_API_ENDPOINT_SET", config.SOAPEndpoint != "",
		"COMPLETE_REDIRECT_DELAY", config.RedirectDelay)

	return config
}

// parseCommandLineFlags parses command line arguments with environment
// defaults.
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:      flag.String("state-dir", config.StateDir, "state directory for caseflow data (overrides $CASEFLOW_STATE_DIR)"),
		dbDSN:         flag.String("db-dsn", config.DatabaseURL, "database DSN for the snapshot store (overrides $DATABASE_URL)"),
		apiAddr:       flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		caseAPIURL:    flag.String("case-api-url", config.CaseAPIURL, "case-management API base URL (overrides $CASE_API_BASE_URL)"),
		caseAPIToken:  flag.String("case-api-token", config.CaseAPIToken, "case-management API access token (overrides $CASE_API_TOKEN)"),
		soapEndpoint:  flag.String("soap-endpoint", config.SOAPEndpoint, "stock lookup SOAP endpoint (overrides $SOAP_API_ENDPOINT)"),
		redirectDelay: flag.Duration("redirect-delay", config.RedirectDelay, "delay between flow completion and snapshot erase/redirect (overrides $COMPLETE_REDIRECT_DELAY)"),
	}

	flag.Parse()

	// Re-point a defaulted SQLite DSN when only the state dir changed.
	if *flags.dbDSN == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated db DSN based on state directory", "new_state_dir", *flags.stateDir)
	}

	return flags
}

// isFileDSN reports whether the DSN points at a SQLite file rather than a
// Postgres server.
func isFileDSN(dsn string) bool {
	return dsn != "" && !strings.HasPrefix(dsn, "postgres://") && !strings.Contains(dsn, "host=")
}

func buildCaseAPIOptions(flags Flags) []caseapi.Option {
	var opts []caseapi.Option
	if *flags.caseAPIURL != "" {
		opts = append(opts, caseapi.WithBaseURL(*flags.caseAPIURL))
	}
	if *flags.caseAPIToken != "" {
		opts = append(opts, caseapi.WithAccessToken(*flags.caseAPIToken))
	}
	return opts
}

func buildSOAPOptions(flags Flags) []soap.Option {
	var opts []soap.Option
	if *flags.soapEndpoint != "" {
		opts = append(opts, soap.WithEndpoint(*flags.soapEndpoint))
	}
	return opts
}

func buildStoreOptions(flags Flags) []store.Option {
	var opts []store.Option
	if *flags.dbDSN != "" {
		opts = append(opts, store.WithDSN(*flags.dbDSN))
	}
	return opts
}

func buildFlowOptions(flags Flags) []flow.Option {
	var opts []flow.Option
	if *flags.redirectDelay > 0 {
		opts = append(opts, flow.WithCompletionDelay(*flags.redirectDelay))
	}
	return opts
}

func buildAPIOptions(flags Flags) []api.Option {
	var opts []api.Option
	if *flags.apiAddr != "" {
		opts = append(opts, api.WithAddr(*flags.apiAddr))
	}
	return opts
}
