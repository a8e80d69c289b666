package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/spqr-86/studypal/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat [video-id]",
	Short: "Chat interactively about a processed video",
	Args:  cobra.ExactArgs(1),
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	videoID, record, err := resolveVideo(app, args[0])
	if err != nil {
		return err
	}

	session, err := app.NewChat(ctx, videoID)
	if err != nil {
		return err
	}

	program := tea.NewProgram(tui.New(session, record.Info.Title), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running chat: %w", err)
	}
	return nil
}

var askCmd = &cobra.Command{
	Use:   "ask [video-id] [question]",
	Short: "Ask a single question about a processed video",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	videoID, _, err := resolveVideo(app, args[0])
	if err != nil {
		return err
	}

	session, err := app.NewChat(ctx, videoID)
	if err != nil {
		return err
	}

	question := args[1]
	for _, extra := range args[2:] {
		question += " " + extra
	}

	answer, err := session.Ask(ctx, question)
	if err != nil {
		return err
	}
	cmd.Println(answer.Answer)
	return nil
}
