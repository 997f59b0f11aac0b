package main

import (
	"context"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"podboard/internal/loader"
	"podboard/internal/speakers"
)

func newSpeakersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "speakers",
		Short: "List the podcast's speakers with their portrait locators",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			resolver := ctx.newResolver(cfg)
			runCtx := context.Background()
			resolver.EnsureIndex(runCtx)

			// Eager rows are async; zero them so the backstop's completion
			// means every episode's speakers are in.
			episodes := resolver.Episodes()
			ldr := loader.New(resolver, loader.NopObserver{}, loader.Config{
				EagerRows:     0,
				BatchSize:     cfg.Loader.BatchSize,
				BackstopDelay: cfg.BackstopDelay(),
			})
			defer ldr.Close()
			ldr.SetRows(runCtx, episodes)
			ldr.Backstop(runCtx)

			appearances := make(map[string]int)
			for _, episode := range episodes {
				for _, name := range resolver.Seed(episode).Speakers {
					appearances[name]++
				}
			}

			names := make([]string, 0, len(appearances))
			for name := range appearances {
				names = append(names, name)
			}
			sort.Slice(names, func(i, j int) bool {
				if appearances[names[i]] != appearances[names[j]] {
					return appearances[names[i]] > appearances[names[j]]
				}
				return names[i] < names[j]
			})

			store := speakers.NewStore(cfg.Data.BaseURL)
			rows := make([][]string, 0, len(names))
			for _, name := range names {
				portrait := ""
				display := name
				if meta, exists := store.Lookup(runCtx, name); exists {
					portrait = meta.ImageURL
					if meta.Name != "" {
						display = meta.Name
					}
				}
				avatar := portrait
				if avatar == "" {
					avatar = "[" + speakers.Initials(name) + "]"
				}
				rows = append(rows, []string{
					display,
					strconv.Itoa(appearances[name]),
					avatar,
				})
			}

			cmd.Println(renderTable(
				[]string{"Speaker", "Episodes", "Portrait"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
}
