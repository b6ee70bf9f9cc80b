package main

import (
	"github.com/spf13/cobra"

	"github.com/robotalks/drive.go/pkg/cli/sh"
)

var offline bool

var consoleCmd = &cobra.Command{
	Use:     "console [command args...]",
	Aliases: []string{"sh"},
	Short:   "Register console, or run one console command",
	Long: `Interactive register console. With arguments, they are run as one
console command and the result is printed (-json for JSON output).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		shell := sh.New("")
		if !offline {
			conn, err := openLink(linkURL)
			if err != nil {
				return err
			}
			shell.Attach(linkURL, conn)
			defer shell.Disconnect()
		}
		shell.Run(args...)
		return nil
	},
}

func init() {
	consoleCmd.Flags().BoolVar(&offline, "offline", false, "Start without a link, use connect in the console")
}
