package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cadence/internal/api"
	"cadence/internal/ipc"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and drive the daemon queue",
	}
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueProcessCommand(ctx))
	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var statuses []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs in submission order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueList(normalizeStatuses(statuses))
				if err != nil {
					return err
				}
				if resp == nil {
					return errors.New("missing queue response")
				}
				if jsonOutput {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				if len(resp.Jobs) == 0 {
					fmt.Fprintln(out, "Queue is empty")
					return nil
				}
				fmt.Fprintln(out, renderJobTable(resp.Jobs))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "Filter by status (waiting, processing, completed, error)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")
	return cmd
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueList(nil)
				if err != nil {
					return err
				}
				job, ok := findJob(resp.Jobs, id)
				if !ok {
					return fmt.Errorf("job %s not found", id)
				}
				if jsonOutput {
					return writeJSON(cmd, api.JobResponse{Job: job})
				}
				printJobDetail(cmd, job)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")
	return cmd
}

func newQueueProcessCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Start converting waiting jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Process()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if resp.Stats.Waiting == 0 && resp.Stats.Processing == 0 {
					fmt.Fprintln(out, "Nothing to process")
					return nil
				}
				fmt.Fprintf(out, "Processing queue (%d waiting, %d processing)\n", resp.Stats.Waiting, resp.Stats.Processing)
				return nil
			})
		},
	}
}

func normalizeStatuses(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.ToLower(strings.TrimSpace(value))
		if value == "failed" {
			value = "error"
		}
		if value != "" {
			out = append(out, value)
		}
	}
	return out
}

// findJob matches a full id or a unique prefix of at least four characters.
func findJob(jobs []api.Job, id string) (api.Job, bool) {
	var match api.Job
	matches := 0
	for _, job := range jobs {
		if job.ID == id {
			return job, true
		}
		if len(id) >= 4 && strings.HasPrefix(job.ID, id) {
			match = job
			matches++
		}
	}
	return match, matches == 1
}

func renderJobTable(jobs []api.Job) string {
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, []string{
			shortID(job.ID),
			job.Name,
			formatLabel(job),
			job.Status,
			api.ProgressLabel(job),
			api.ElapsedLabel(job.ElapsedMS),
			api.ResultLabel(job),
		})
	}
	return renderTable(jobColumns, rows)
}

func printJobDetail(cmd *cobra.Command, job api.Job) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:       %s\n", job.ID)
	fmt.Fprintf(out, "File:     %s\n", job.Name)
	fmt.Fprintf(out, "Format:   %s\n", formatLabel(job))
	fmt.Fprintf(out, "Status:   %s (%s)\n", job.Status, api.ProgressLabel(job))
	if job.StartedAt != "" {
		fmt.Fprintf(out, "Started:  %s\n", job.StartedAt)
	}
	if job.FinishedAt != "" {
		fmt.Fprintf(out, "Finished: %s (%s)\n", job.FinishedAt, api.ElapsedLabel(job.ElapsedMS))
	}
	if job.OutputPath != "" {
		fmt.Fprintf(out, "Output:   %s\n", job.OutputPath)
	}
	if job.Error != "" {
		fmt.Fprintf(out, "Error:    %s\n", job.Error)
	}
}

func formatLabel(job api.Job) string {
	if job.Bitrate == "" {
		return job.Format
	}
	return job.Format + " @ " + job.Bitrate
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
