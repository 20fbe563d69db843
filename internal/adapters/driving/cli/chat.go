package cli

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sitesage/internal/core/domain"
)

const chatHelp = `Commands:
  /reset   start a new conversation
  /lead    leave your contact details
  /quit    exit`

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long: `Reads questions line by line and answers each from the knowledge base.
The conversation remembers which specialist answered last and reports
handoffs when the topic moves on.

Type /help for chat commands. When stdin is not a terminal, questions are
read until end of input without prompts.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	in := cmd.InOrStdin()
	interactive := isTerminal(in)
	scanner := bufio.NewScanner(in)
	state := &domain.SessionState{}

	if interactive {
		cmd.Println("Ask anything about the site. Type /help for commands.")
		cmd.Println()
	}

	for {
		if err := cmd.Context().Err(); err != nil {
			return nil
		}
		if interactive {
			cmd.Print("> ")
		}
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/help":
			cmd.Println(chatHelp)
			continue
		case "/reset":
			state = &domain.SessionState{}
			cmd.Println("Started a new conversation.")
			continue
		case "/lead":
			if err := chatLead(cmd, scanner, interactive); err != nil {
				cmd.PrintErrf("Could not save your details: %v\n", err)
			}
			continue
		}

		answer := answerService.Answer(cmd.Context(), line, state)
		printAnswer(cmd, answer)
	}

	return scanner.Err()
}

// chatLead asks for contact details on the chat input and stores them.
func chatLead(cmd *cobra.Command, scanner *bufio.Scanner, interactive bool) error {
	if leadService == nil {
		return errors.New("lead capture not configured")
	}

	ask := func(prompt string) string {
		if interactive {
			cmd.Print(prompt)
		}
		if !scanner.Scan() {
			return ""
		}
		return strings.TrimSpace(scanner.Text())
	}

	lead := domain.Lead{
		Name:    ask("Name: "),
		Contact: ask("Email or phone: "),
		Notes:   ask("How can we help? "),
		Source:  "chat",
	}

	saved, err := leadService.Capture(cmd.Context(), lead)
	if err != nil {
		return err
	}
	cmd.Printf("Thanks %s, we will be in touch.\n", saved.Name)
	return nil
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
