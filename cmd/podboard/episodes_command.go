package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"podboard/internal/loader"
	"podboard/internal/models"
)

func newEpisodesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "episodes",
		Short: "List the podcast's episodes with resolved metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			resolver := ctx.newResolver(cfg)
			runCtx := context.Background()
			resolver.EnsureIndex(runCtx)

			episodes := resolver.Episodes()
			if len(episodes) == 0 {
				if resolver.IndexFailed() {
					return fmt.Errorf("episode index for %s is unavailable", cfg.Data.Podcast)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "no episodes found")
				return nil
			}

			// No visibility signal in a one-shot listing; resolve everything
			// through the batch pass before rendering. Eager rows resolve
			// asynchronously, so they stay at zero here or the first rows
			// could print before their detail lands.
			ldr := loader.New(resolver, loader.NopObserver{}, loader.Config{
				EagerRows:     0,
				BatchSize:     cfg.Loader.BatchSize,
				BackstopDelay: cfg.BackstopDelay(),
			})
			defer ldr.Close()
			ldr.SetRows(runCtx, episodes)
			ldr.Backstop(runCtx)

			rows := make([][]string, 0, len(episodes))
			for _, episode := range episodes {
				rec := resolver.Seed(episode)
				rows = append(rows, []string{
					fmt.Sprintf("%d", rec.EpisodeNumber),
					rec.Title,
					strings.Join(rec.Speakers, ", "),
					models.FormatDuration(rec.DurationSec),
					rec.Date,
				})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"#", "Title", "Speakers", "Length", "Date"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
}
