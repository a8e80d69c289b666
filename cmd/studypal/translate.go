package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/spqr-86/studypal"
)

var (
	translateLang string
	translateOut  string
)

var translateCmd = &cobra.Command{
	Use:   "translate [video-id]",
	Short: "Translate a video's subtitles",
	Args:  cobra.ExactArgs(1),
	RunE:  runTranslate,
}

func init() {
	translateCmd.Flags().StringVarP(&translateLang, "to", "t", "ru", "target language code")
	translateCmd.Flags().StringVarP(&translateOut, "output", "o", "", "write result to file instead of stdout")
	rootCmd.AddCommand(translateCmd)
}

func runTranslate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if err := studypal.ValidateLanguage(translateLang); err != nil {
		return err
	}

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	_, record, err := resolveVideo(app, args[0])
	if err != nil {
		return err
	}

	translator, err := app.NewTranslator()
	if err != nil {
		return err
	}

	translated, err := translator.TranslateSubtitles(ctx, record.Subtitles, record.Language, translateLang)
	if err != nil {
		return err
	}

	out := studypal.FormatTranslation(record.Subtitles, translated)
	if translateOut != "" {
		if err := os.WriteFile(translateOut, []byte(out), 0o644); err != nil {
			return err
		}
		cmd.Printf("Wrote translation to %s\n", translateOut)
		return nil
	}
	cmd.Print(out)
	return nil
}
