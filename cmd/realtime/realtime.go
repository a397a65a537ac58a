// Package realtime implements the live monitoring command.
package realtime

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/barkwatch/barkwatch-go/internal/analysis"
	"github.com/barkwatch/barkwatch-go/internal/conf"
	"github.com/barkwatch/barkwatch-go/internal/myaudio"
)

// Command creates the command for real-time audio monitoring.
func Command(settings *conf.Settings) *cobra.Command {
	var listDevices bool

	cmd := &cobra.Command{
		Use:   "realtime",
		Short: "Monitor audio in realtime mode",
		Long:  "Start monitoring incoming audio in real time, detecting barks and thunder.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if listDevices {
				return printCaptureDevices()
			}
			return analysis.RealtimeAnalysis(settings)
		},
	}

	cmd.Flags().BoolVar(&listDevices, "list-devices", false, "List available capture devices and exit")

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the realtime command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.Realtime.Audio.Source, "source", viper.GetString("realtime.audio.source"), "Audio capture source (\"default\", \"USB Audio\", etc.)")
	cmd.Flags().BoolVar(&settings.Realtime.Telemetry.Enabled, "telemetry", viper.GetBool("realtime.telemetry.enabled"), "Enable Prometheus telemetry endpoint")
	cmd.Flags().StringVar(&settings.Realtime.Telemetry.Listen, "listen", viper.GetString("realtime.telemetry.listen"), "Listen address and port of telemetry endpoint")
	cmd.Flags().BoolVar(&settings.Realtime.MQTT.Enabled, "mqtt", viper.GetBool("realtime.mqtt.enabled"), "Publish confirmed events over MQTT")
	cmd.Flags().StringVar(&settings.Realtime.MQTT.Broker, "broker", viper.GetString("realtime.mqtt.broker"), "MQTT broker URI (tcp://host:port)")
	cmd.Flags().StringVar(&settings.Realtime.MQTT.Topic, "topic", viper.GetString("realtime.mqtt.topic"), "MQTT topic for published events")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}

func printCaptureDevices() error {
	names, err := myaudio.ListCaptureDevices()
	if err != nil {
		return err
	}

	fmt.Println("Available capture sources:")
	for i, name := range names {
		fmt.Printf("  %d: %s\n", i, name)
	}
	return nil
}
