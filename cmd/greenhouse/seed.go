package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file>",
		Short: "Import a catalog seed file into the database",
		Long: `Validate a seed YAML file and upsert its zones, profiles, sensors,
actuators, rules, modes and readings into the catalog database. Nothing is
written when validation fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*configPath, true, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			st, err := openStore(cmd.Context(), cfg.Database, "", log)
			if err != nil {
				return err
			}
			defer st.close(log)

			n, err := importSeedFile(cmd.Context(), st.repo, args[0])
			if err != nil {
				return err
			}
			if err := st.registry.RefreshCache(cmd.Context()); err != nil {
				return fmt.Errorf("reloading catalog: %w", err)
			}

			ds := st.registry.Dataset()
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s: %d zones, %d sensors, %d rules, %d readings\n",
				args[0], len(ds.Zones), len(ds.Sensors), len(ds.Rules), n)
			return nil
		},
	}
}
