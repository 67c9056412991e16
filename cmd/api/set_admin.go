package main

import (
	"github.com/spf13/cobra"

	"accmarket/internal/infrastructure/firebase"
	"accmarket/pkg/logger"
)

func newSetRoleCmd() *cobra.Command {
	var revoke bool
	cmd := &cobra.Command{
		Use:   "set-admin <uid>",
		Short: "Grant or revoke the admin role claim on a Firebase user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			app, err := firebase.NewApp(ctx, cfg, firebase.ClientOptions(cfg)...)
			if err != nil {
				return err
			}
			client, err := firebase.NewAuthClient(ctx, app)
			if err != nil {
				return err
			}

			role := firebase.RoleAdmin
			if revoke {
				role = ""
			}
			if err := client.SetRole(ctx, args[0], role); err != nil {
				return err
			}
			logger.Info("Updated role of %s to %q", args[0], role)
			return nil
		},
	}
	cmd.Flags().BoolVar(&revoke, "revoke", false, "remove the admin role instead of granting it")
	return cmd
}
