// Command talecraft plays and checks interactive fiction written in Lua and
// YAML.
//
// Usage:
//
//	talecraft play [--plain] [--script <file>] [--load <slot>] <game_directory>
//	talecraft validate <game_directory>
//	talecraft version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nathoo/talecraft/internal/config"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()
	var configFile string

	root := &cobra.Command{
		Use:          "talecraft",
		Short:        "A scene-stack runtime for interactive fiction",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./talecraft.yaml or ~/.talecraft/talecraft.yaml)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	_ = v.BindPFlag(config.KeyLogLevel, root.PersistentFlags().Lookup("log-level"))

	load := func() (*config.Config, error) {
		return config.Load(v, configFile)
	}
	root.AddCommand(newPlayCmd(v, load), newValidateCmd(load), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "talecraft %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
