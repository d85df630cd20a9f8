package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tokenkit/go-jwt-manager/config"
)

func newSnapshotCmd(a *app) *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Export the keys held by every source",
		Long: `Exports the registry as a JSON snapshot. Without --write the snapshot is
printed; with --write it replaces the configured snapshot_file, which is
imported the next time the configuration is loaded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, rt, err := a.runtime()
			if err != nil {
				return err
			}
			defer rt.Close()

			snap := rt.Registry.Export()
			if !write {
				return printJSON(cmd.OutOrStdout(), snap)
			}

			if cfg.SnapshotFile == "" {
				return errors.New("--write needs snapshot_file in the configuration")
			}
			if err := config.WriteSnapshot(cfg.SnapshotFile, snap); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d issuers to %s\n", len(snap), cfg.SnapshotFile)
			return nil
		},
	}

	cmd.Flags().BoolVar(&write, "write", false, "Write the snapshot to the configured snapshot_file")
	return cmd
}
