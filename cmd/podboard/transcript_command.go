package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"podboard/internal/models"
	"podboard/internal/transcript"
)

func newTranscriptCommand(ctx *commandContext) *cobra.Command {
	var (
		from     string
		to       string
		speaker  string
		maxChars int
	)

	cmd := &cobra.Command{
		Use:   "transcript <episode>",
		Short: "Print a transcript excerpt for a time window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			episode, err := strconv.Atoi(args[0])
			if err != nil || episode <= 0 {
				return fmt.Errorf("invalid episode number %q", args[0])
			}

			startSec := float64(models.ParseDurationString(from))
			endSec := float64(models.ParseDurationString(to))
			if to == "" {
				endSec = startSec + 300
			}
			if endSec < startSec {
				return fmt.Errorf("window end %q is before its start", to)
			}

			transcripts := ctx.newTranscripts(cfg)
			runCtx := context.Background()
			transcripts.Load(runCtx, episode)

			switch transcripts.State(episode) {
			case transcript.StateMissing:
				return fmt.Errorf("no transcript available for episode %d", episode)
			case transcript.StateMalformed:
				return fmt.Errorf("transcript for episode %d is malformed", episode)
			}

			doc, exists := transcripts.Document(episode)
			if !exists {
				return fmt.Errorf("no transcript available for episode %d", episode)
			}

			fmt.Fprintln(cmd.OutOrStdout(), transcript.ExcerptForWindow(doc, startSec, endSec, maxChars, speaker))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "0", "Window start (seconds, MM:SS, or HH:MM:SS)")
	cmd.Flags().StringVar(&to, "to", "", "Window end (defaults to start + 5 minutes)")
	cmd.Flags().StringVar(&speaker, "speaker", "", "Only include lines by this speaker")
	cmd.Flags().IntVar(&maxChars, "max-chars", 4000, "Truncate the excerpt after this many characters")
	return cmd
}
