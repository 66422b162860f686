package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/contextsense/ai/observability/logging"
	"github.com/hrygo/contextsense/internal/profile"
	"github.com/hrygo/contextsense/internal/version"
	"github.com/hrygo/contextsense/server"
	apiv1 "github.com/hrygo/contextsense/server/router/api/v1"
)

var (
	rootCmd = &cobra.Command{
		Use:   "contextsense",
		Short: `A contextual decision engine: analyses messages and calls and decides how to answer them.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Systemd units pass configuration through the environment, not .env.
			if !isRunningAsSystemdService() {
				_ = godotenv.Load()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default command)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
)

// persistentFlags are bound to viper under the same key.
var persistentFlags = []string{
	"mode", "addr", "port", "data", "driver", "dsn", "strategy",
	"config-dir", "log-level", "log-format",
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("mode", "demo", `mode of server, can be "prod" or "dev" or "demo"`)
	flags.String("addr", "", "address of server")
	flags.Int("port", 8081, "port of server")
	flags.String("data", "", "data directory")
	flags.String("driver", profile.DriverMemory, "history store driver (memory, sqlite, postgres)")
	flags.String("dsn", "", "database source name(aka. DSN)")
	flags.String("strategy", "rule", `reply strategy, "rule" or "remote"`)
	flags.String("config-dir", "", "directory of the lexicon and template YAML overrides")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "json", `log format, "json" or "text"`)

	for _, name := range persistentFlags {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("contextsense")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(serveCmd, versionCmd, analyzeCmd)
}

// loadProfile layers defaults, CONTEXTSENSE_* variables and explicit flags.
func loadProfile() (*profile.Profile, error) {
	p := profile.Default()
	p.FromEnv()

	setString := func(key string, dst *string) {
		if viper.IsSet(key) {
			*dst = viper.GetString(key)
		}
	}
	setString("mode", &p.Mode)
	setString("addr", &p.Addr)
	setString("data", &p.Data)
	setString("driver", &p.Driver)
	setString("dsn", &p.DSN)
	setString("strategy", &p.Strategy)
	setString("config-dir", &p.ConfigDir)
	setString("log-level", &p.LogLevel)
	setString("log-format", &p.LogFormat)
	if viper.IsSet("port") {
		p.Port = viper.GetInt("port")
	}
	p.Version = version.String()

	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := logging.Setup(p.LogLevel, p.LogFormat); err != nil {
		return nil, err
	}
	return p, nil
}

func serve(parent context.Context) error {
	instanceProfile, err := loadProfile()
	if err != nil {
		return err
	}
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	rt, err := newRuntime(ctx, instanceProfile)
	if err != nil {
		printDatabaseError(err, instanceProfile)
		return err
	}
	defer rt.Close()

	apiV1Service := apiv1.NewAPIV1Service(instanceProfile, rt.engine, rt.resolver, rt.history)
	s, err := server.NewServer(ctx, instanceProfile, apiV1Service, rt.exporter.Handler())
	if err != nil {
		slog.Error("failed to create server", "error", err)
		return err
	}

	c := make(chan os.Signal, 1)
	// SIGTERM is the graceful shutdown signal of most process managers.
	signal.Notify(c, terminationSignals...)
	defer signal.Stop(c)

	if err := s.Start(ctx); err != nil {
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start server", "error", err)
			return err
		}
	}

	printGreetings(instanceProfile)

	go func() {
		select {
		case <-c:
		case <-ctx.Done():
		}
		s.Shutdown(context.Background())
		cancel()
	}()

	<-ctx.Done()
	return nil
}

func printGreetings(profile *profile.Profile) {
	fmt.Printf("ContextSense %s started successfully!\n", profile.Version)
	if profile.IsDev() {
		fmt.Fprint(os.Stderr, "Development mode is enabled\n")
	}

	fmt.Printf("Strategy: %s\n", profile.Strategy)
	fmt.Printf("History driver: %s\n", profile.Driver)
	fmt.Printf("Mode: %s\n", profile.Mode)
	if len(profile.Addr) == 0 {
		fmt.Printf("Server running on port %d\n", profile.Port)
	} else {
		fmt.Printf("Server running on %s:%d\n", profile.Addr, profile.Port)
	}
}

// isRunningAsSystemdService detects if the process is running under systemd
func isRunningAsSystemdService() bool {
	return os.Getenv("INVOCATION_ID") != "" || os.Getenv("WATCHDOG_USEC") != ""
}

// printDatabaseError explains common history store failures on stderr.
func printDatabaseError(err error, p *profile.Profile) {
	if p.Driver == profile.DriverMemory {
		return
	}
	fmt.Fprintln(os.Stderr, "\nHistory store unavailable")

	errMsg := err.Error()
	switch {
	case strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "no such host"):
		fmt.Fprintln(os.Stderr, "PostgreSQL is not reachable. Check the DSN or use --driver=sqlite.")
	case strings.Contains(errMsg, "sslmode") || strings.Contains(errMsg, "SSL is not enabled"):
		fmt.Fprintln(os.Stderr, "Add ?sslmode=disable to your DSN.")
	case strings.Contains(errMsg, "password authentication failed"):
		fmt.Fprintln(os.Stderr, "Check the credentials in the DSN or .env file.")
	case strings.Contains(errMsg, "permission denied"):
		fmt.Fprintln(os.Stderr, "Check the permissions of the data directory or database user.")
	default:
		fmt.Fprintln(os.Stderr, "Error:", errMsg)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
