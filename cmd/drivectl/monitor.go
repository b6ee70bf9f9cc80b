package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/robotalks/drive.go/pkg/cli/tui"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live telemetry with keyboard teleop",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("monitor needs a terminal")
		}
		profile, err := loadProfile()
		if err != nil {
			return err
		}
		s, err := openSession(linkURL)
		if err != nil {
			return err
		}
		err = tui.Run(s.Client, s.URL, tui.LimitsFor(profile))
		if closeErr := s.Close(); err == nil {
			err = closeErr
		}
		return err
	},
}
