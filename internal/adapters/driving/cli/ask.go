package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sitesage/internal/core/domain"
)

var askJSON bool

// errAnswerFailed makes a failed one-shot answer exit non-zero.
var errAnswerFailed = errors.New("no answer generated")

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one question from the knowledge base",
	Long: `Retrieves the passages closest to the question, routes it to a
specialist and asks the configured LLM to answer using only those passages.
The reply is followed by the numbered sources it was grounded on.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	question := strings.Join(args, " ")
	answer := answerService.Answer(cmd.Context(), question, &domain.SessionState{})

	if askJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
	} else {
		printAnswer(cmd, answer)
	}

	if answer.IsError() {
		return errAnswerFailed
	}
	return nil
}

// printAnswer writes the badge, reply, sources and any handoff.
func printAnswer(cmd *cobra.Command, answer domain.Answer) {
	cmd.Println(labelBadge(answer.Label))
	if answer.Handoff != "" {
		cmd.Println(handoffStyle.Render("handoff: " + answer.Handoff))
	}
	cmd.Println()
	cmd.Println(answer.Reply)
	if answer.Sources != "" {
		cmd.Println()
		cmd.Println("Sources:")
		cmd.Println(answer.Sources)
	}
	if verbose && answer.PromptTokens > 0 {
		cmd.Println(mutedStyle.Render(fmt.Sprintf("(%d prompt tokens)", answer.PromptTokens)))
	}
	cmd.Println()
}
