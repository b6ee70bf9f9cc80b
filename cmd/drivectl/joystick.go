package main

import (
	"flag"

	"github.com/spf13/cobra"

	"github.com/robotalks/drive.go/pkg/joystick"
)

var joystickCmd = &cobra.Command{
	Use:     "joystick",
	Aliases: []string{"js"},
	Short:   "Drive with a gamepad",
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := loadProfile()
		if err != nil {
			return err
		}
		s, err := openSession(linkURL)
		if err != nil {
			return err
		}
		return runWith(s, joystick.Default().NewController(s.Client, profile))
	},
}

func init() {
	fs := flag.NewFlagSet("joystick", flag.ContinueOnError)
	joystick.SetupFlags(fs)
	joystickCmd.Flags().AddGoFlagSet(fs)
}
