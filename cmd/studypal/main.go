// Command studypal turns YouTube videos into study material: transcripts,
// tables of contents, translations, and a chat that answers questions with
// timestamp citations.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spqr-86/studypal"
	"github.com/spqr-86/studypal/config"
)

var (
	flagConfig  string
	flagDataDir string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "studypal",
	Short: "Study YouTube videos with transcripts, chat, and translation",
	Long: `StudyPal fetches a video's subtitles, splits them into navigable
blocks, embeds them into a local vector store, and lets you chat about the
content with timestamp citations. Subtitles can also be translated.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to studypal.yaml")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
}

// loadConfig applies the global flags on top of the file and environment.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
		cfg.VectorDB.Address = flagDataDir + "/chromem"
	}
	if flagVerbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

func newApp(ctx context.Context) (*studypal.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return studypal.NewApp(ctx, cfg)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
