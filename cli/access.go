package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ourlife/backend/services"
)

// NewAccessCommand creates the access command for managing read grants.
func NewAccessCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "access",
		Short: "Manage read access between users",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "grant <viewer> <target>",
		Short: "Let viewer read target's records",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGraph(rootOpts, func(ctx context.Context, graph *services.AccessGraph) error {
				if _, err := graph.Grant(ctx, args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s can now view %s\n", args[0], args[1])
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "revoke <viewer> <target>",
		Short: "Remove a read grant",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGraph(rootOpts, func(ctx context.Context, graph *services.AccessGraph) error {
				removed, err := graph.Revoke(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				if !removed {
					fmt.Fprintf(cmd.OutOrStdout(), "No grant from %s to %s\n", args[0], args[1])
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s can no longer view %s\n", args[0], args[1])
				return nil
			})
		},
	})

	var viewer string
	list := &cobra.Command{
		Use:   "list",
		Short: "List read grants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGraph(rootOpts, func(ctx context.Context, graph *services.AccessGraph) error {
				grants, err := graph.ListGrants(ctx, viewer)
				if err != nil {
					return err
				}
				for _, g := range grants {
					fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", g.Viewer, g.Target)
				}
				return nil
			})
		},
	}
	list.Flags().StringVar(&viewer, "viewer", "", "only list grants held by this user")
	cmd.AddCommand(list)

	return cmd
}

func withGraph(rootOpts *RootOptions, fn func(ctx context.Context, graph *services.AccessGraph) error) error {
	_, db, err := rootOpts.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(context.Background(), services.NewAccessGraph(db))
}
