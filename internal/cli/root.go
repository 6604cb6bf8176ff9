package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/decisionhub/decisionhub/internal/cli/commands"
	"github.com/decisionhub/decisionhub/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev" // Will be set during build

var rootCmd = &cobra.Command{
	Use:   "decisionhub",
	Short: "decisionhub - group decision making from the terminal",
	Long: `decisionhub CLI - Log in, answer issue invitations and manage your
account on a decisionhub server.

Experts are invited to decision issues, answer the invitation from their
notifications and follow the issues they take part in.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Load .env files (fails silently if files don't exist)
		_ = godotenv.Load(".env")
		_ = godotenv.Load(".env.local")

		level := os.Getenv("LOG_LEVEL")
		if level == "" {
			level = "warn"
		}
		format := os.Getenv("LOG_FORMAT")
		if format == "" {
			format = "console"
		}
		// Logs go to stderr so that -o json stays parseable
		logger.InitWithWriter(os.Stderr, level, format)
	},
}

func init() {
	commands.BindGlobalFlags(rootCmd)

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("decisionhub version %s\n", version)
		},
	})

	// Add all subcommands
	rootCmd.AddCommand(commands.NewInitCmd())
	rootCmd.AddCommand(commands.NewUseCmd())
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewSignupCmd())
	rootCmd.AddCommand(commands.NewConfirmCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewWhoamiCmd())
	rootCmd.AddCommand(commands.NewNotificationsCmd())
	rootCmd.AddCommand(commands.NewIssuesCmd())
	rootCmd.AddCommand(commands.NewSettingsCmd())
	rootCmd.AddCommand(commands.NewRouteCmd())
	rootCmd.AddCommand(commands.NewDashCmd())
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
