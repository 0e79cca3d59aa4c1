package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"cadence/internal/ipc"
	"cadence/internal/notifications"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			client, err := ipc.Dial(ctx.socketPath())
			if err != nil {
				return sendLocalTestNotification(cmd, ctx)
			}
			defer client.Close()

			resp, err := client.TestNotification()
			if err != nil {
				if resp != nil && resp.Message != "" {
					fmt.Fprintln(out, resp.Message)
				}
				return err
			}
			if resp == nil {
				return errors.New("missing notification response")
			}
			switch {
			case resp.Message != "":
				fmt.Fprintln(out, resp.Message)
			case resp.Sent:
				fmt.Fprintln(out, "Test notification sent")
			default:
				fmt.Fprintln(out, "Notification not sent")
			}
			return nil
		},
	}
}

// sendLocalTestNotification covers the case where no daemon is running.
func sendLocalTestNotification(cmd *cobra.Command, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	svc := notifications.NewService(cfg)
	out := cmd.OutOrStdout()
	if !notifications.Enabled(svc) {
		fmt.Fprintln(out, "ntfy topic not configured")
		return nil
	}
	if err := svc.TestNotification(cmd.Context()); err != nil {
		return fmt.Errorf("send test notification: %w", err)
	}
	fmt.Fprintln(out, "Test notification sent")
	return nil
}
