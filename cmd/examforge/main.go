package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/examforge/examforge/internal/handler"
	appI18n "github.com/examforge/examforge/internal/i18n"
	"github.com/examforge/examforge/internal/model"
	"github.com/examforge/examforge/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "examforge",
		Short: "Randomized multiple-choice exam generator",
	}

	serve := serveCmd()
	root.AddCommand(serve)

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `examforge --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP exam-generation server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "examforge.db", "SQLite database path")
	f.String("data-dir", "data", "Directory for produced archives")
	f.Duration("retention", 24*time.Hour, "How long produced archives stay downloadable")
	f.Duration("cleanup-interval", time.Hour, "How often expired archives are swept")
	f.Int64("max-upload", 16<<20, "Maximum upload size in bytes")
	f.Int("columns", 2, "Default document layout columns (1 or 2)")
	f.StringP("lang", "l", "en", "UI language (en, vi)")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /vi)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("EXAMFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("examforge")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/examforge")
	v.AddConfigPath("/etc/examforge")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	// Open the archive registry.
	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// Initialize i18n.
	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	columns := v.GetInt("columns")
	if columns != 1 && columns != 2 {
		return fmt.Errorf("columns must be 1 or 2, got %d", columns)
	}

	// Normalize base path.
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	cfg := model.ServerConfig{
		DataDir:        v.GetString("data-dir"),
		Retention:      v.GetDuration("retention"),
		MaxUploadBytes: v.GetInt64("max-upload"),
		DefaultColumns: columns,
		BasePath:       basePath,
		Lang:           lang,
	}

	h, err := handler.New(db, cfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	// Sweep leftovers from previous runs, then keep sweeping.
	if err := h.RemoveExpired(); err != nil {
		slog.Warn("initial archive sweep failed", "error", err)
	}
	go func() {
		for range time.Tick(v.GetDuration("cleanup-interval")) {
			if err := h.RemoveExpired(); err != nil {
				slog.Error("archive sweep failed", "error", err)
			}
		}
	}()

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))

	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			sub.Use(h.BasePathMiddleware)
			h.Routes(sub)
		})
	} else {
		r.Use(h.BasePathMiddleware)
		h.Routes(r)
	}

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"lang", lang,
		"data_dir", cfg.DataDir,
		"retention", cfg.Retention,
		"columns", cfg.DefaultColumns,
		"base_path", basePath,
	)
	return http.ListenAndServe(addr, r)
}
