package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"cadence/internal/daemonctl"
	"cadence/internal/ipc"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var format string
	var bitrate string
	var noStart bool
	var launch bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "add <file>...",
		Short: "Queue files for conversion by the daemon",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := make([]string, 0, len(args))
			for _, arg := range args {
				abs, err := filepath.Abs(arg)
				if err != nil {
					return fmt.Errorf("resolve %s: %w", arg, err)
				}
				paths = append(paths, abs)
			}

			client, launched, err := connectForAdd(ctx, launch)
			if err != nil {
				return err
			}
			defer client.Close()

			out := cmd.OutOrStdout()
			if launched && !jsonOutput {
				fmt.Fprintln(out, "Daemon not running, launched it")
			}
			resp, err := client.Add(ipc.AddRequest{Paths: paths, Format: format, Bitrate: bitrate, NoStart: noStart})
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, resp)
			}
			for _, job := range resp.Jobs {
				fmt.Fprintf(out, "Queued %s as %s (%s)\n", job.Name, shortID(job.ID), formatLabel(job))
			}
			if noStart {
				fmt.Fprintln(out, "Run `cadence queue process` to start converting")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format (m4a, mp3, opus)")
	cmd.Flags().StringVarP(&bitrate, "bitrate", "b", "", "Target bitrate such as 192k")
	cmd.Flags().BoolVar(&noStart, "no-start", false, "Queue without starting conversion")
	cmd.Flags().BoolVar(&launch, "launch", false, "Launch the daemon when it is not running")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")
	return cmd
}

func connectForAdd(ctx *commandContext, launch bool) (*ipc.Client, bool, error) {
	if !launch {
		client, err := ctx.dialClient()
		return client, false, err
	}
	exe, err := daemonExecutable()
	if err != nil {
		return nil, false, err
	}
	client, launched, err := daemonctl.Connect(ctx.socketPath(), exe, daemonLaunchOptions(ctx), 10*time.Second)
	if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
		return nil, false, wrapDialError(err, ctx.socketPath())
	}
	return client, launched, err
}
