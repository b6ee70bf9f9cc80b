package main

import (
	"flag"

	"github.com/spf13/cobra"

	"github.com/robotalks/drive.go/pkg/vehicle"
)

var (
	linkURL       string
	wsUsername    string
	wsNoSSLVerify bool
	profilePath   string
)

var rootCmd = &cobra.Command{
	Use:   "drivectl",
	Short: "Host tools for the drive vehicle",
	Long: `drivectl talks to a vehicle over its register link.

Links:
  Serial:    --link /dev/ttyUSB0 or --link serial:///dev/ttyUSB0?baud=115200
  TCP:       --link tcp://localhost:7000 (drivesim)
  WebSocket: --link ws://host:7080/uart [--username user]

For WebSocket authentication, the password is read from the DRIVE_PASSWORD
environment variable, or prompted interactively if not set.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// glog reads its flags from the standard flag set.
		flag.CommandLine.Parse(nil)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&linkURL, "link", "l", "tcp://localhost:7000", "Vehicle link URL")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth (websocket only)")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "Calibration profile (YAML) bounding commands")
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	rootCmd.AddCommand(consoleCmd, monitorCmd, bridgeCmd, joystickCmd, portsCmd)
}

func loadProfile() (vehicle.Profile, error) {
	if profilePath == "" {
		return vehicle.DefaultProfile(), nil
	}
	return vehicle.LoadProfile(profilePath)
}
