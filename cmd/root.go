package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizchat/internal/chat"
	"github.com/abhisek/quizchat/internal/config"
	"github.com/abhisek/quizchat/internal/logging"
	"github.com/abhisek/quizchat/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "quizchat",
	Short: "Arithmetic quiz chatbot for kids",
	Long:  "Quizchat is a terminal and browser chatbot that quizzes children on arithmetic with an LLM.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
	SilenceUsage: true,
}

// ExecuteContext runs the root command. ctx is canceled on interrupt.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to the config file (default $XDG_CONFIG_HOME/quizchat/config.yaml)")
	pf.String("db", "", "Path to the SQLite usage log; enables usage logging (overrides QUIZCHAT_DB)")
	pf.String("log-file", "", "Path to the log file (overrides QUIZCHAT_LOG_FILE)")
	pf.String("log-level", "", "Log level: debug, info, warn or error")
	pf.String("provider", "", "LLM provider: openai, anthropic, gemini, openrouter or mock")
	pf.String("model", "", "Model of the selected provider")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// configPath returns the --config flag or the default location.
func configPath(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		return p
	}
	return config.DefaultPath()
}

// loadConfig loads the layered configuration and applies the persistent
// flags on top.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{Path: configPath(cmd), DotEnv: ".env"})
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if v, _ := flags.GetString("provider"); v != "" {
		cfg.Provider = v
	}
	if v, _ := flags.GetString("model"); v != "" {
		cfg.SetModel(v)
	}
	if v, _ := flags.GetString("db"); v != "" {
		cfg.UsageDB = v
	}
	if v, _ := flags.GetString("log-file"); v != "" {
		cfg.Log.File = v
	}
	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	return cfg, nil
}

// runtime holds what a front end needs: the validated config, the logger
// and the optional usage log.
type runtime struct {
	cfg     config.Config
	cfgPath string
	logger  *slog.Logger
	store   *store.Store
	closers []io.Closer
}

// setup loads and validates the config, initializes logging and opens the
// usage log when one is configured.
func setup(cmd *cobra.Command) (*runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg, cfgPath: configPath(cmd)}

	logger, closer, err := logging.Init(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Logging disabled:", err)
	}
	rt.logger = logger
	rt.closers = append(rt.closers, closer)

	if cfg.UsageDB != "" {
		if err := store.EnsureDir(cfg.UsageDB); err != nil {
			rt.Close()
			return nil, fmt.Errorf("create usage log directory: %w", err)
		}
		st, err := store.Open(cfg.UsageDB)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("open usage log: %w", err)
		}
		rt.store = st
		rt.closers = append(rt.closers, st)
	}

	logger.Info("quizchat_start",
		"version", version,
		"provider", cfg.Provider,
		"model", cfg.LLM().Model(),
		"usage_log", cfg.UsageDB != "",
	)
	return rt, nil
}

// service builds the chat service for a front end.
func (rt *runtime) service(frontend string) *chat.Service {
	opts := chat.Options{Frontend: frontend, Logger: rt.logger}
	if rt.store != nil {
		opts.Events = rt.store.EventRepo()
	}
	return chat.NewService(opts)
}

// saveSettings persists settings edited in the terminal UI.
func (rt *runtime) saveSettings(s chat.Settings) error {
	next := rt.cfg
	next.ApplySettings(s)
	if err := next.Validate(); err != nil {
		return err
	}
	if err := config.Save(rt.cfgPath, next); err != nil {
		return err
	}
	rt.cfg = next
	rt.logger.Info("settings_saved", "path", rt.cfgPath, "provider", rt.cfg.Provider)
	return nil
}

func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i].Close(); err != nil {
			fmt.Fprintln(os.Stderr, "close:", err)
		}
	}
}

// resolveDBPath returns the usage log path for the inspection commands:
// --db, then QUIZCHAT_DB or usage_db from the config, then the default XDG
// path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return "", err
	}
	if cfg.UsageDB != "" {
		return cfg.UsageDB, store.EnsureDir(cfg.UsageDB)
	}
	return store.DefaultDBPath()
}
