package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	usersCmd := &cobra.Command{Use: "users", Short: "User operations"}

	var userID, email, name string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{"userId": userID, "email": email}
			if name != "" {
				payload["displayName"] = name
			}
			out, err := call(apiClient().R().SetBody(payload), http.MethodPost, "/v1/users")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, out)
			return nil
		},
	}
	createCmd.Flags().StringVarP(&userID, "userId", "u", "", "User ID (required)")
	createCmd.Flags().StringVarP(&email, "email", "e", "", "User email (required)")
	createCmd.Flags().StringVarP(&name, "name", "n", "", "Display name")
	_ = createCmd.MarkFlagRequired("userId")
	_ = createCmd.MarkFlagRequired("email")
	usersCmd.AddCommand(createCmd)

	getCmd := &cobra.Command{
		Use:   "get USER_ID",
		Short: "Get user by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := call(apiClient().R(), http.MethodGet, "/v1/users/"+args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, out)
			return nil
		},
	}
	usersCmd.AddCommand(getCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete USER_ID",
		Short: "Delete your own user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := call(apiClient().R(), http.MethodDelete, "/v1/users/"+args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, "deleted")
			return nil
		},
	}
	usersCmd.AddCommand(deleteCmd)

	statusCmd := &cobra.Command{
		Use:   "status USER_ID",
		Short: "Show friendship status between you and a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := call(apiClient().R(), http.MethodGet, "/v1/users/"+args[0]+"/friendship-status")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, out)
			return nil
		},
	}
	usersCmd.AddCommand(statusCmd)

	rootCmd.AddCommand(usersCmd)
}
