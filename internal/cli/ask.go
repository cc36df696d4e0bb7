package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/capitalize-ai/support-router/internal/model"
)

func newAskCommand(open openFunc) *cobra.Command {
	var (
		conversationID string
		asJSON         bool
	)
	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Send one message through the router and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.Messages.Send(cmd.Context(), &model.ChatRequest{
				Message:        strings.Join(args, " "),
				ConversationID: conversationID,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}

			fmt.Fprintf(out, "[%s, confidence %.2f, %dms]\n\n%s\n", resp.AgentUsed, resp.Confidence, resp.ResponseTimeMs, resp.Message)
			if len(resp.Sources) > 0 {
				fmt.Fprintf(out, "\nSources: %s\n", strings.Join(resp.Sources, ", "))
			}
			fmt.Fprintf(out, "\nconversation: %s\n", resp.ConversationID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&conversationID, "conversation", "c", "", "continue an existing conversation")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full response as JSON")
	return cmd
}
