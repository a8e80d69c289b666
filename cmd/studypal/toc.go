package main

import (
	"github.com/spf13/cobra"

	"github.com/spqr-86/studypal"
)

var tocBlock int

var tocCmd = &cobra.Command{
	Use:   "toc [video-id]",
	Short: "Show a video's table of contents",
	Args:  cobra.ExactArgs(1),
	RunE:  runTOC,
}

func init() {
	tocCmd.Flags().IntVarP(&tocBlock, "block", "b", 0, "show the content of block N instead (1-based)")
	rootCmd.AddCommand(tocCmd)
}

func runTOC(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	_, record, err := resolveVideo(app, args[0])
	if err != nil {
		return err
	}

	if tocBlock > 0 {
		content, err := studypal.BlockContent(record.Blocks, tocBlock-1)
		if err != nil {
			return err
		}
		cmd.Println(content)
		return nil
	}

	cmd.Println(studypal.TableOfContents(record.Blocks))
	cmd.Println("Show a block with: studypal toc " + record.Info.ID + " --block 1")
	return nil
}
