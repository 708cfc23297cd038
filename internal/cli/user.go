package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/lms/internal/wire"
)

// UserCmd returns the user command
func UserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(userCreateCmd())
	cmd.AddCommand(userListCmd())
	cmd.AddCommand(userShowCmd())
	cmd.AddCommand(userUpdateCmd())
	cmd.AddCommand(userDeleteCmd())
	return cmd
}

var userFlags = map[string]string{
	"email":      "email",
	"first-name": "firstName",
	"last-name":  "lastName",
	"role":       "role",
}

func addUserFlags(cmd *cobra.Command) {
	cmd.Flags().String("email", "", "Email address")
	cmd.Flags().String("first-name", "", "First name")
	cmd.Flags().String("last-name", "", "Last name")
	cmd.Flags().String("role", "", "Role (student, instructor, admin)")
	addFieldFlags(cmd)
}

func userCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Long: `Create a user. Legacy field names and value spellings are accepted and
standardized before validation.

Examples:
  lms user create --email ana@example.com --first-name Ana --role student
  lms user create -f prenom=Ana -f courriel=ana@example.com -f role=formateur`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := recordFromFlags(cmd, userFlags)
			if err != nil {
				return err
			}
			return wire.UserAdapter().Create(commandContext(cmd), rec)
		},
	}
	addUserFlags(cmd)
	return cmd
}

func userListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.UserAdapter().List(commandContext(cmd))
		},
	}
}

func userShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.UserAdapter().Show(commandContext(cmd), args[0])
		},
	}
}

func userUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <user-id>",
		Short: "Update fields of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := recordFromFlags(cmd, userFlags)
			if err != nil {
				return err
			}
			return wire.UserAdapter().Update(commandContext(cmd), args[0], rec)
		},
	}
	addUserFlags(cmd)
	return cmd
}

func userDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <user-id>",
		Short: "Delete a user and their role satellite entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.UserAdapter().Delete(commandContext(cmd), args[0])
		},
	}
}
