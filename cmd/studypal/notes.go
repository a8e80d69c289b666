package main

import (
	"github.com/spf13/cobra"
)

var notesCmd = &cobra.Command{
	Use:   "notes [video-id] [file-or-dir-or-url]",
	Short: "Ingest personal study notes into a video's collection",
	Long: `Ingests notes into a processed video's collection so chatting about
that video searches them alongside the transcript. Accepts a file, a
directory (processed recursively), or an HTTP(S) URL.
Supported formats: PDF, plain text, Markdown, SRT, and VTT.`,
	Args: cobra.ExactArgs(2),
	RunE: runNotes,
}

func init() {
	rootCmd.AddCommand(notesCmd)
}

func runNotes(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.AddNotes(ctx, args[0], args[1]); err != nil {
		return err
	}
	cmd.Println("Notes ingested.")
	return nil
}
