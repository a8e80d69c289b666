package main

import (
	"github.com/spf13/cobra"

	"github.com/spqr-86/studypal/youtube"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List processed videos",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	records, err := app.Library().List()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		cmd.Println("No videos processed yet. Start with: studypal process <url>")
		return nil
	}

	for _, record := range records {
		cmd.Printf("%s  %-45.45s  %s  %d blocks  added %s\n",
			record.Info.ID,
			record.Info.Title,
			youtube.FormatTime(record.Duration()),
			len(record.Blocks),
			record.CreatedAt.Format("2006-01-02"),
		)
	}
	return nil
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which provider API keys are configured",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		for _, key := range cfg.APIStatus() {
			mark := "missing"
			if key.Present {
				mark = "ok"
			}
			cmd.Printf("%-18s %-26s %-8s %s\n", key.Name, key.EnvVar, mark, key.Required)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
