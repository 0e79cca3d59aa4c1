package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"cadence/internal/daemonctl"
	"cadence/internal/daemonrun"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	var development bool
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the cadence daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:    ctx.logLevel(),
				Development: development,
			})
		},
	}
	daemonCmd.Flags().BoolVar(&development, "dev", false, "Include source locations in log output")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the cadence daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(cfg, 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.StopAcknowledged {
				fmt.Fprintln(stdout, "Stopping daemon...")
			} else {
				fmt.Fprintln(stdout, "Stop request sent")
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Killed daemon process (pid %d)\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	var statusJSON bool
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, device and dependency status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			snapshot, err := daemonctl.BuildStatusSnapshot(cfg)
			if err != nil {
				return err
			}
			if statusJSON {
				return writeJSON(cmd, snapshot)
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)
			printSection(stdout, "System Status", renderStatusLines(snapshot.SystemChecks, colorize), colorize)
			printSection(stdout, "Dependencies", dependencyLines(snapshot.Daemon.Dependencies, snapshot.DependencySummary, colorize), colorize)
			printSection(stdout, "Paths", renderStatusLines(snapshot.PathChecks, colorize), colorize)

			for _, line := range renderSectionHeader("Queue", colorize) {
				fmt.Fprintln(stdout, line)
			}
			if !snapshot.Reachable {
				fmt.Fprintln(stdout, "Daemon offline")
				return nil
			}
			stats := snapshot.Daemon.Stats
			if stats.Waiting+stats.Processing+stats.Completed+stats.Failed == 0 {
				fmt.Fprintln(stdout, "Queue is empty")
				return nil
			}
			fmt.Fprintln(stdout, renderTable(queueStatsColumns, [][]string{{
				fmt.Sprint(stats.Waiting),
				fmt.Sprint(stats.Processing),
				fmt.Sprint(stats.Completed),
				fmt.Sprint(stats.Failed),
			}}))
			return nil
		},
	}
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print JSON")

	return []*cobra.Command{daemonCmd, stopCmd, statusCmd}
}

func printSection(out io.Writer, title string, lines []string, colorize bool) {
	for _, line := range renderSectionHeader(title, colorize) {
		fmt.Fprintln(out, line)
	}
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out)
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext) daemonctl.LaunchOptions {
	return daemonctl.LaunchOptions{
		ConfigPath: ctx.configPath,
		LogLevel:   ctx.logLevel(),
	}
}
