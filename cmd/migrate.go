package cmd

import (
	"errors"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the brands and products tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			if a.Brands() == nil {
				return errors.New("migrate requires db.dsn")
			}
			if err := a.Brands().EnsureSchema(cmd.Context()); err != nil {
				return err
			}
			a.Logger().Info("schema is up to date")
			return nil
		},
	}
}
