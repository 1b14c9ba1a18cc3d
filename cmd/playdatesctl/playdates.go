package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	playdatesCmd := &cobra.Command{Use: "playdates", Short: "Playdate operations"}

	var title, description, location, start, end string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a playdate",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{
				"title":     title,
				"startTime": start,
				"endTime":   end,
			}
			if description != "" {
				payload["description"] = description
			}
			if location != "" {
				payload["location"] = location
			}
			out, err := call(apiClient().R().SetBody(payload), http.MethodPost, "/v1/playdates")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, out)
			return nil
		},
	}
	createCmd.Flags().StringVar(&title, "title", "", "Playdate title (required)")
	createCmd.Flags().StringVar(&description, "description", "", "Description")
	createCmd.Flags().StringVar(&location, "location", "", "Location")
	createCmd.Flags().StringVar(&start, "start", "", "Start time, RFC3339 (required)")
	createCmd.Flags().StringVar(&end, "end", "", "End time, RFC3339 (required)")
	_ = createCmd.MarkFlagRequired("title")
	_ = createCmd.MarkFlagRequired("start")
	_ = createCmd.MarkFlagRequired("end")
	playdatesCmd.AddCommand(createCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List playdates",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := call(apiClient().R(), http.MethodGet, "/v1/playdates")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, out)
			return nil
		},
	}
	playdatesCmd.AddCommand(listCmd)

	getCmd := &cobra.Command{
		Use:   "get PLAYDATE_ID",
		Short: "Get playdate by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := call(apiClient().R(), http.MethodGet, "/v1/playdates/"+args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, out)
			return nil
		},
	}
	playdatesCmd.AddCommand(getCmd)
	rootCmd.AddCommand(playdatesCmd)

	invitesCmd := &cobra.Command{Use: "invites", Short: "Playdate invitation operations"}

	var playdateID, recipient, message string
	sendCmd := &cobra.Command{
		Use:   "send",
		Short: "Invite a user to a playdate",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{
				"playdateId":  playdateID,
				"recipientId": recipient,
			}
			if message != "" {
				payload["message"] = message
			}
			out, err := call(apiClient().R().SetBody(payload), http.MethodPost, "/v1/invitations")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, out)
			return nil
		},
	}
	sendCmd.Flags().StringVarP(&playdateID, "playdate", "p", "", "Playdate ID (required)")
	sendCmd.Flags().StringVarP(&recipient, "to", "r", "", "Recipient user ID (required)")
	sendCmd.Flags().StringVarP(&message, "message", "m", "", "Optional message")
	_ = sendCmd.MarkFlagRequired("playdate")
	_ = sendCmd.MarkFlagRequired("to")
	invitesCmd.AddCommand(sendCmd)

	for _, action := range []string{"accept", "decline"} {
		action := action
		invitesCmd.AddCommand(&cobra.Command{
			Use:   action + " INVITATION_ID",
			Short: action + " a playdate invitation",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				out, err := call(apiClient().R(), http.MethodPost, "/v1/invitations/"+args[0]+"/"+action)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(os.Stdout, out)
				return nil
			},
		})
	}

	listInvCmd := &cobra.Command{
		Use:   "list",
		Short: "List your pending invitations",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := call(apiClient().R(), http.MethodGet, "/v1/invitations")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, out)
			return nil
		},
	}
	invitesCmd.AddCommand(listInvCmd)

	sentCmd := &cobra.Command{
		Use:   "sent",
		Short: "List invitations you sent",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := call(apiClient().R(), http.MethodGet, "/v1/invitations/sent")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, out)
			return nil
		},
	}
	invitesCmd.AddCommand(sentCmd)

	rootCmd.AddCommand(invitesCmd)
}
