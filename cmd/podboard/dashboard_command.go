package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"podboard/internal/loader"
	"podboard/internal/playback"
	"podboard/internal/ui"
)

func newDashboardCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Open the interactive episode dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			resolver := ctx.newResolver(cfg)
			transcripts := ctx.newTranscripts(cfg)

			element, err := playback.NewMPVElement()
			if err != nil {
				return err
			}

			controller := playback.NewController(element, transcripts, resolver, playback.Options{
				MetadataTimeout: cfg.MetadataTimeout(),
			})

			observer := ui.NewVisibilityObserver()
			ldr := loader.New(resolver, observer, loader.Config{
				EagerRows:     cfg.Loader.EagerRows,
				BatchSize:     cfg.Loader.BatchSize,
				BackstopDelay: cfg.BackstopDelay(),
			})

			app := ui.NewApp(resolver, ldr, transcripts, controller, element, observer)

			runCtx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-sigCh
				cancel()
			}()

			defer app.Close()
			if err := app.Run(runCtx); err != nil && err != context.Canceled {
				return err
			}
			return nil
		},
	}
}
