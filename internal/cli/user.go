package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/invcache/internal/users"
)

// newUserCommand writes through the repository directly. The repository's
// change listener still invalidates the cache.
func newUserCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users without going through the HTTP API",
	}

	var (
		name, email string
		disabled    bool
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				enabled := !disabled
				u, err := a.repo.Create(cmd.Context(), users.Input{Name: &name, Email: &email, Enabled: &enabled})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created user %d\n", u.ID)
				return nil
			})
		},
	}
	create.Flags().StringVar(&name, "name", "", "display name")
	create.Flags().StringVar(&email, "email", "", "email address")
	create.Flags().BoolVar(&disabled, "disabled", false, "create the user disabled")
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("email")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", args[0], err)
			}
			return opts.withApp(cmd.Context(), func(a *app) error {
				if err := a.repo.Delete(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %d\n", id)
				return nil
			})
		},
	}

	cmd.AddCommand(create, del)
	return cmd
}
