package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sitesage/internal/core/domain"
)

var (
	leadName    string
	leadContact string
	leadNotes   string
	leadSource  string
	leadLimit   int
	leadJSON    bool
)

var leadCmd = &cobra.Command{
	Use:   "lead",
	Short: "Capture and list contact requests",
}

var leadCaptureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Record a contact request",
	Long: `Stores a contact request and forwards it to the configured webhook,
if any. Webhook failures are reported in the log but the lead is kept.`,
	Args: cobra.NoArgs,
	RunE: runLeadCapture,
}

var leadListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent contact requests",
	Args:  cobra.NoArgs,
	RunE:  runLeadList,
}

func init() {
	leadCaptureCmd.Flags().StringVar(&leadName, "name", "", "visitor name (required)")
	leadCaptureCmd.Flags().StringVar(&leadContact, "contact", "", "email or phone (required)")
	leadCaptureCmd.Flags().StringVar(&leadNotes, "notes", "", "what the visitor needs")
	leadCaptureCmd.Flags().StringVar(&leadSource, "source", "cli", "where the lead came from")

	leadListCmd.Flags().IntVarP(&leadLimit, "limit", "n", 20, "maximum number of leads (0 = all)")
	leadListCmd.Flags().BoolVar(&leadJSON, "json", false, "output leads as JSON")

	leadCmd.AddCommand(leadCaptureCmd)
	leadCmd.AddCommand(leadListCmd)
	rootCmd.AddCommand(leadCmd)
}

func runLeadCapture(cmd *cobra.Command, _ []string) error {
	if leadService == nil {
		return errors.New("lead service not configured")
	}

	lead, err := leadService.Capture(cmd.Context(), domain.Lead{
		Name:    leadName,
		Contact: leadContact,
		Notes:   leadNotes,
		Source:  leadSource,
	})
	if err != nil {
		return fmt.Errorf("failed to capture lead: %w", err)
	}

	cmd.Printf("Lead %s saved.\n", lead.ID)
	return nil
}

func runLeadList(cmd *cobra.Command, _ []string) error {
	if leadService == nil {
		return errors.New("lead service not configured")
	}

	leads, err := leadService.List(cmd.Context(), leadLimit)
	if err != nil {
		return fmt.Errorf("failed to list leads: %w", err)
	}

	if leadJSON {
		data, err := json.MarshalIndent(leads, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal leads: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(leads) == 0 {
		cmd.Println("No leads yet.")
		return nil
	}

	for i := range leads {
		l := &leads[i]
		cmd.Printf("%s  %-20s %-28s [%s]\n", l.CreatedAt.Local().Format(time.DateTime), l.Name, l.Contact, l.Source)
		if l.Notes != "" {
			cmd.Printf("    %s\n", l.Notes)
		}
	}
	return nil
}
