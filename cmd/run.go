package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/wompRS/WompBot-Discord-sub002/wompbot"
)

var (
	runCmd = &cobra.Command{
		Use:   "run [flags]",
		Short: "Starts the WompBot bot and API",
		Run: func(cmd *cobra.Command, _ []string) {
			ctx := cmd.Context()
			bot, err := wompbot.New(cfg)
			if err != nil {
				log.Fatalf("error creating wompbot: %s", err.Error())
			}

			if err = bot.Run(ctx); err != nil {
				log.Fatalf("error running wompbot: %s", err.Error())
			}
		},
	}
)

func init() {
	rootCmd.AddCommand(runCmd)
}
