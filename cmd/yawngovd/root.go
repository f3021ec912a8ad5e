// Command yawngovd hosts the adaptive idle governor outside the kernel: a
// long-running daemon that drives governor.Engine against a real or
// simulated Platform and exposes it over debugapi, plus one-shot
// inspection and tuning subcommands against a running instance.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/erfan111/yawn-governor/internal/config"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "yawngovd",
	Short: "Adaptive CPU idle-state governor daemon",
	Long: `yawngovd runs the multi-expert idle-state governor as a
userspace decision engine: an ensemble of residency, timer and
network-traffic experts predicts the length of the next idle period,
and a pre-emptive wake timer lets the selector commit to deeper sleep
states than a conservative policy would risk.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config.toml (default ~/.yawngovd/config.toml)")
}

func loadConfig() (config.Config, error) {
	return config.Load(cfgPath)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
