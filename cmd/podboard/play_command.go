package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"podboard/internal/models"
	"podboard/internal/playback"
	"podboard/internal/transcript"
)

func newPlayCommand(ctx *commandContext) *cobra.Command {
	var (
		at      string
		speaker string
	)

	cmd := &cobra.Command{
		Use:   "play <episode>",
		Short: "Play one episode from the terminal",
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

			position := 0
			if at != "" {
				position = models.ParseDurationString(at)
				if position == 0 && at != "0" {
					return fmt.Errorf("invalid position %q (use seconds, MM:SS, or HH:MM:SS)", at)
				}
			}

			resolver := ctx.newResolver(cfg)
			transcripts := ctx.newTranscripts(cfg)

			startSec := float64(position)
			if speaker != "" {
				// Jump to where the speaker talks nearest the requested
				// position, preferring their next segment over an earlier one
				transcripts.Load(cmd.Context(), episode)
				doc, exists := transcripts.Document(episode)
				if !exists {
					return fmt.Errorf("no transcript for episode %d, cannot locate speaker %q", episode, speaker)
				}
				target, found := transcript.NearestSegmentForSpeaker(doc, startSec, speaker)
				if !found {
					return fmt.Errorf("speaker %q not found near %s in episode %d", speaker, at, episode)
				}
				startSec = target
			}

			element, err := playback.NewMPVElement()
			if err != nil {
				return err
			}
			defer element.Close()

			controller := playback.NewController(element, transcripts, resolver, playback.Options{
				MetadataTimeout: cfg.MetadataTimeout(),
				OnError: func(msg string) {
					fmt.Fprintln(cmd.ErrOrStderr(), msg)
				},
			})
			defer controller.Close()

			runCtx, cancel := context.WithCancel(context.Background())
			defer cancel()

			done, err := controller.PlayAt(runCtx, episode, startSec, "cli")
			if err != nil {
				return err
			}
			<-done

			// Full detail brings the proper title and any chapter markers
			rec := resolver.Resolve(runCtx, episode)
			fmt.Fprintf(cmd.OutOrStdout(), "Playing %s\n", rec.Title)
			for _, chapter := range rec.Chapters {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s  %s\n",
					models.FormatDuration(int(chapter.StartSec)), chapter.Title)
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			ticks := element.Ticks()
			for {
				select {
				case <-sigCh:
					fmt.Fprintln(cmd.OutOrStdout())
					return nil
				case pos, open := <-ticks:
					if !open {
						return nil
					}
					line := fmt.Sprintf("\r%s / %s",
						models.FormatDuration(int(pos)), models.FormatDuration(rec.DurationSec))
					if doc, exists := transcripts.Document(episode); exists {
						if segment, found := transcript.CurrentSegment(doc, pos); found && segment.Speaker != "" {
							line += fmt.Sprintf("  %s: %.60s", segment.Speaker, segment.Text)
						}
					}
					fmt.Fprint(cmd.OutOrStdout(), line+"\033[K")
				}
			}
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Start position (seconds, MM:SS, or HH:MM:SS)")
	cmd.Flags().StringVar(&speaker, "speaker", "", "Start where this speaker talks nearest the position")
	return cmd
}
