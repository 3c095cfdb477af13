package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/knamoah/kasabot/internal/app"
	"github.com/knamoah/kasabot/internal/config"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bot",
	Long: `Starts the bot: polls Telegram for messages, answers them using the
configured model, refreshes the knowledge base on its schedule, and
serves health checks over HTTP. Runs until SIGTERM or SIGINT.

Credentials are read from the TELEGRAM_TOKEN and OPENAI_API_KEY
environment variables, never from the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		creds := app.Credentials{
			TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
			OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		}

		a, err := app.New(cfg, creds, newLogger())
		if err != nil {
			return err
		}
		return a.Run(context.Background())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
