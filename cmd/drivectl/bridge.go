package main

import (
	"flag"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/robotalks/drive.go/pkg/host/mqtt"
)

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Publish telemetry to MQTT and accept remote commands",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(linkURL)
		if err != nil {
			return err
		}
		bridge, err := mqtt.Default().NewBridge(s.Client)
		if err != nil {
			s.Close()
			return err
		}
		s.Client.Telemetry = bridge
		glog.Infof("bridging %s to %s", s.URL, bridge.TelemetryTopic())
		return runWith(s, bridge)
	},
}

func init() {
	fs := flag.NewFlagSet("bridge", flag.ContinueOnError)
	mqtt.SetupFlags(fs)
	bridgeCmd.Flags().AddGoFlagSet(fs)
}
