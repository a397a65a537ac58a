// Package file implements offline analysis of a single WAV file.
package file

import (
	"github.com/spf13/cobra"

	"github.com/barkwatch/barkwatch-go/internal/analysis"
	"github.com/barkwatch/barkwatch-go/internal/conf"
)

// Command creates the command for analyzing a single audio file.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "file [input.wav]",
		Short: "Analyze an audio file",
		Long:  "Run a recorded WAV file through the same detection pipeline as realtime mode.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return analysis.FileAnalysis(settings, args[0])
		},
	}
}
