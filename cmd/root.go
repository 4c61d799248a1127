package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the rejectlabel application
var rootCmd = &cobra.Command{
	Use:   "rejectlabel",
	Short: "Labels job rejection emails in Gmail",
	Long: `rejectlabel searches your Gmail inbox for job application rejections and
applies a label to every match. Messages are not archived or deleted.

It can run as:
  - A standalone CLI tool (default)
  - An MCP (Model Context Protocol) server for AI assistants`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "rejectlabel version %s\n" .Version}}`)

	// If no subcommand is provided, run the label command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "label")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newLabelCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
