package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nathoo/talecraft/internal/config"
	"github.com/nathoo/talecraft/internal/logger"
	"github.com/nathoo/talecraft/loader"
)

func newValidateCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <game_directory>",
		Short: "Check a story for broken references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			logger.Setup(cfg, os.Stderr)

			out := cmd.OutOrStdout()
			res, err := loader.Load(args[0])
			var verr *loader.ValidationError
			if errors.As(err, &verr) {
				for _, w := range verr.Warnings {
					fmt.Fprintf(out, "warning: %s\n", w)
				}
				for _, e := range verr.Errors {
					fmt.Fprintf(out, "error: %s\n", e)
				}
				return fmt.Errorf("%d errors in %s", len(verr.Errors), args[0])
			}
			if err != nil {
				return err
			}

			for _, w := range res.Warnings {
				fmt.Fprintf(out, "warning: %s\n", w)
			}
			meta := res.Library.Meta
			fmt.Fprintf(out, "%s: ok (%d locations, %d npcs)\n", meta.Title, len(res.Library.LocationIDs()), len(res.Library.NPCIDs()))
			return nil
		},
	}
}
