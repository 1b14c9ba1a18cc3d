package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	friendsCmd := &cobra.Command{Use: "friends", Short: "Friendship operations"}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List your friends",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := call(apiClient().R(), http.MethodGet, "/v1/friends")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, out)
			return nil
		},
	}
	friendsCmd.AddCommand(listCmd)

	removeCmd := &cobra.Command{
		Use:   "remove FRIEND_ID",
		Short: "Remove a friend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := call(apiClient().R(), http.MethodDelete, "/v1/friends/"+args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, "removed")
			return nil
		},
	}
	friendsCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(friendsCmd)

	requestsCmd := &cobra.Command{Use: "requests", Short: "Friend request operations"}

	var recipient, message string
	sendCmd := &cobra.Command{
		Use:   "send",
		Short: "Send a friend request",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{"recipientId": recipient}
			if message != "" {
				payload["message"] = message
			}
			out, err := call(apiClient().R().SetBody(payload), http.MethodPost, "/v1/friend-requests")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, out)
			return nil
		},
	}
	sendCmd.Flags().StringVarP(&recipient, "to", "r", "", "Recipient user ID (required)")
	sendCmd.Flags().StringVarP(&message, "message", "m", "", "Optional message")
	_ = sendCmd.MarkFlagRequired("to")
	requestsCmd.AddCommand(sendCmd)

	for _, action := range []string{"accept", "decline"} {
		action := action
		requestsCmd.AddCommand(&cobra.Command{
			Use:   action + " REQUEST_ID",
			Short: action + " a friend request",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				out, err := call(apiClient().R(), http.MethodPost, "/v1/friend-requests/"+args[0]+"/"+action)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(os.Stdout, out)
				return nil
			},
		})
	}

	cancelCmd := &cobra.Command{
		Use:   "cancel REQUEST_ID",
		Short: "Cancel a friend request you sent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := call(apiClient().R(), http.MethodDelete, "/v1/friend-requests/"+args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, "cancelled")
			return nil
		},
	}
	requestsCmd.AddCommand(cancelCmd)

	for _, dir := range []string{"incoming", "outgoing"} {
		dir := dir
		requestsCmd.AddCommand(&cobra.Command{
			Use:   dir,
			Short: "List " + dir + " friend requests",
			RunE: func(cmd *cobra.Command, args []string) error {
				out, err := call(apiClient().R(), http.MethodGet, "/v1/friend-requests/"+dir)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(os.Stdout, out)
				return nil
			},
		})
	}

	rootCmd.AddCommand(requestsCmd)
}
