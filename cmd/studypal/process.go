package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spqr-86/studypal"
	"github.com/spqr-86/studypal/youtube"
)

var processCmd = &cobra.Command{
	Use:   "process [url]",
	Short: "Fetch, segment, and embed a video's subtitles",
	Args:  cobra.ExactArgs(1),
	RunE:  runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	record, err := app.ProcessVideo(ctx, args[0])
	if err != nil {
		return fmt.Errorf("processing video: %w", err)
	}

	cmd.Printf("Processed %q (%s)\n", record.Info.Title, record.Info.ID)
	cmd.Printf("  Language:  %s\n", record.Language)
	cmd.Printf("  Subtitles: %d\n", len(record.Subtitles))
	cmd.Printf("  Blocks:    %d\n", len(record.Blocks))
	cmd.Printf("  Duration:  %s\n", youtube.FormatTime(record.Duration()))
	cmd.Printf("\nNext: studypal chat %s\n", record.Info.ID)
	return nil
}

var deleteCmd = &cobra.Command{
	Use:   "delete [video-id]",
	Short: "Remove a processed video and its embeddings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		videoID, err := youtube.ExtractVideoID(args[0])
		if err != nil {
			return err
		}
		if err := app.Library().Delete(ctx, videoID); err != nil {
			return err
		}
		cmd.Printf("Deleted %s\n", videoID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

// resolveVideo accepts a video ID or URL and returns the stored record.
func resolveVideo(app *studypal.App, arg string) (string, *studypal.VideoRecord, error) {
	videoID, err := youtube.ExtractVideoID(arg)
	if err != nil {
		return "", nil, err
	}
	record, err := app.Library().Load(videoID)
	if err != nil {
		return "", nil, fmt.Errorf("video %s is not processed yet, run: studypal process %s", videoID, videoID)
	}
	return videoID, record, nil
}
