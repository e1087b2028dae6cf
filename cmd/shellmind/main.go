package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"shellmind/internal/config"
)

var (
	// Global flags
	configPath          string
	providerFlag        string
	modelFlag           string
	maxRetriesFlag      int
	autoApproveModerate bool
	verbose             bool

	// Logger for non-interactive commands. The chat TUI renders its
	// own output and skips zap entirely.
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "shellmind",
	Short: "shellmind - conversational shell automation",
	Long: `shellmind is an LLM-driven assistant that operates your shell through a
gated tool loop. Every risky command is classified before execution and
held for your approval.

Run without arguments to start the interactive chat interface.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The interactive TUI owns the terminal; no zap there.
		if cmd.Name() == "shellmind" {
			return nil
		}
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractiveChat()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", config.DefaultPath(), "config file path")
	pf.StringVar(&providerFlag, "provider", "", "LLM provider (anthropic, openai, gemini)")
	pf.StringVar(&modelFlag, "model", "", "model name override")
	pf.IntVar(&maxRetriesFlag, "max-retries", 0, "retry budget override (1-10)")
	pf.BoolVar(&autoApproveModerate, "auto-approve-moderate", false, "skip approval for moderate-risk commands")
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file and applies flag overrides on top.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if providerFlag != "" {
		cfg.LLM.Provider = providerFlag
	}
	if modelFlag != "" {
		cfg.LLM.Model = modelFlag
	}
	if maxRetriesFlag > 0 {
		cfg.Agent.MaxRetries = maxRetriesFlag
	}
	if autoApproveModerate {
		cfg.Agent.AutoApproveModerate = true
	}
	return cfg, nil
}

var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the shellmind version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("shellmind %s\n", version)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
