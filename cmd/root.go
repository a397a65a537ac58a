// Package cmd assembles the barkwatch command tree.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/barkwatch/barkwatch-go/cmd/correlate"
	"github.com/barkwatch/barkwatch-go/cmd/events"
	"github.com/barkwatch/barkwatch-go/cmd/file"
	"github.com/barkwatch/barkwatch-go/cmd/realtime"
	"github.com/barkwatch/barkwatch-go/internal/conf"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "barkwatch",
		Short: "BarkWatch CLI",
		Long:  "Continuous audio monitor that detects and correlates dog barks and thunder.",
	}

	setupFlags(rootCmd, settings)

	subcommands := []*cobra.Command{
		realtime.Command(settings),
		file.Command(settings),
		events.Command(settings),
		correlate.Command(settings),
	}
	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return conf.ValidateSettings(settings)
	}

	return rootCmd
}

// setupFlags configures global flags shared by all subcommands.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	cmd.PersistentFlags().StringVar(&settings.YAMNet.ModelPath, "model", viper.GetString("yamnet.modelpath"), "Path to the YAMNet tflite model file")
	cmd.PersistentFlags().StringVar(&settings.YAMNet.ClassMapPath, "classmap", viper.GetString("yamnet.classmappath"), "Path to the YAMNet class map CSV")
	cmd.PersistentFlags().StringVar(&settings.Output.SQLite.Path, "db", viper.GetString("output.sqlite.path"), "Path to the SQLite database")

	if err := viper.BindPFlags(cmd.PersistentFlags()); err != nil {
		fmt.Printf("error binding flags: %v\n", err)
	}
}
