package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/OCAP2/combatlog/internal/monitor"

	"github.com/spf13/cobra"
)

var debounceFlag = monitor.DefaultDebounce

var watchCmd = &cobra.Command{
	Use:   "watch <combat-log> [raw-log]",
	Short: "Re-parse the logs every time they are written",
	Long: `Watch parses the logs once, then parses them again from the start after
each burst of writes and stores every run as a new snapshot.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runWatch,
}

func init() {
	addPipelineFlags(watchCmd)
	watchCmd.Flags().DurationVar(&debounceFlag, "debounce", monitor.DefaultDebounce, "quiet period after a write before re-parsing")
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp(configDir, logLevel, !noLogFile)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := newPipeline(ctx, a, settingsFromFlags(cmd))
	if err != nil {
		a.logger.Error("setup failed", "error", err)
		return err
	}
	defer p.Close()

	primary, raw := logArgs(args)
	out := cmd.OutOrStdout()
	reparse := func(ctx context.Context) error {
		return p.process(ctx, out, primary, raw)
	}

	// An empty log is normal before the game writes anything.
	if err := reparse(ctx); err != nil {
		a.logger.Warn("initial parse failed", "error", err)
	}

	paths := []string{primary}
	if raw != "" {
		paths = append(paths, raw)
	}
	svc := monitor.NewService(monitor.Dependencies{
		Paths:    paths,
		Debounce: debounceFlag,
		OnChange: reparse,
		Logger:   a.logger,
	})
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to watch logs: %w", err)
	}
	a.logger.Info("watching logs", "paths", paths, "debounce", debounceFlag)

	<-svc.Done()
	svc.Stop()
	a.logger.Info("watch stopped")
	return nil
}
