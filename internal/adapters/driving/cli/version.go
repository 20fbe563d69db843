package cli

import (
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and the loaded knowledge base",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("sitesage version %s\n", version)
		if retriever == nil {
			return
		}
		m := retriever.Manifest()
		if m.Version == "" {
			cmd.Println("knowledge base: none published")
			return
		}
		cmd.Printf("knowledge base: %s (%d passages, %s, built %s)\n",
			m.Version, m.Count, m.Model, m.BuiltAt.Format("2006-01-02 15:04"))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
