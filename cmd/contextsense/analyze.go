package main

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hrygo/contextsense/ai/types"
	apiv1 "github.com/hrygo/contextsense/server/router/api/v1"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [text]",
	Short: "Analyse one utterance and print the reply and analysis as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProfile()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		rt, err := newRuntime(ctx, p)
		if err != nil {
			return err
		}
		defer rt.Close()

		sender, _ := cmd.Flags().GetString("sender")
		name, _ := cmd.Flags().GetString("name")
		relFlag, _ := cmd.Flags().GetString("relationship")

		var rel types.Relationship
		if relFlag != "" {
			rel = types.Relationship{Type: types.RelationshipType(relFlag), Confidence: 1}
			if !rel.Type.IsValid() {
				return errors.Errorf("invalid relationship %q", relFlag)
			}
		} else {
			rel = rt.resolver.Resolve(ctx, sender, name)
		}

		resp, analysis := rt.engine.Process(ctx, args[0], types.ConversationContext{
			Platform:     "cli",
			SenderID:     sender,
			SenderName:   name,
			Relationship: rel,
			Timestamp:    time.Now(),
		})

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(apiv1.ProcessResponse{Response: resp, Analysis: analysis})
	},
}

func init() {
	analyzeCmd.Flags().String("sender", "", "sender identifier")
	analyzeCmd.Flags().String("name", "", "sender display name")
	analyzeCmd.Flags().String("relationship", "", "relationship type (PARTNER, FAMILY, FRIEND, WORK, UNKNOWN); resolved when empty")
}
