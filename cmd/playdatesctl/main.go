package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiFlag   string
	tokenFlag string
	rootCmd   = &cobra.Command{
		Use:   "playdatesctl",
		Short: "CLI client for the playdates REST API",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "Playdates service base URL")
	rootCmd.PersistentFlags().StringVarP(&tokenFlag, "token", "t", "", "Bearer token (use uid:<userID> against a dev server)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
