package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/psimmons86/playdates-server/internal/auth"
)

func init() {
	var secret, userID string
	var ttl time.Duration
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := auth.NewJWTAuthorizer(secret, "playdates").IssueToken(userID, ttl)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, token)
			return nil
		},
	}
	tokenCmd.Flags().StringVarP(&secret, "secret", "s", "", "HMAC secret the server was started with (required)")
	tokenCmd.Flags().StringVarP(&userID, "user", "u", "", "User ID (required)")
	tokenCmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("secret")
	_ = tokenCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(tokenCmd)
}
