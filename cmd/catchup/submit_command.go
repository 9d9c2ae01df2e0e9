package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"catchup/internal/api"
	"catchup/internal/store"
)

const waitPollInterval = 2 * time.Second

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var language string
	var wait bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "submit <url>",
		Short: "Queue a lecture URL for processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.SubmitJob(cmd.Context(), api.SubmitJobRequest{
					URL:      args[0],
					Language: language,
				})
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if !jsonOut {
					fmt.Fprintf(out, "Queued job %s\n", resp.JobID)
					fmt.Fprintf(out, "Lecture: %s\n", resp.LectureID)
				}
				if !wait {
					if jsonOut {
						return writeJSON(cmd, resp)
					}
					return nil
				}

				final, waitErr := waitForJob(cmd.Context(), client, resp.JobID, out, jsonOut)
				if jsonOut && final != nil {
					if err := writeJSON(cmd, final); err != nil {
						return err
					}
				}
				return waitErr
			})
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", "auto", "Transcription language (auto, no, en, ...)")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Wait for the job to finish")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

// waitForJob polls the job until it reaches a terminal status, echoing status
// transitions unless quiet. It returns the last observed detail alongside any
// failure so --json callers still get the terminal snapshot.
func waitForJob(ctx context.Context, client *api.Client, jobID string, out io.Writer, quiet bool) (*api.JobDetailResponse, error) {
	ticker := time.NewTicker(waitPollInterval)
	defer ticker.Stop()

	lastStatus := ""
	for {
		detail, err := client.Job(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if !quiet && detail.Job.Status != lastStatus {
			fmt.Fprintf(out, "%s (%s)\n", detail.Job.Status, formatProgress(detail.Job.Progress))
			lastStatus = detail.Job.Status
		}
		switch detail.Job.Status {
		case string(store.StatusDone):
			if !quiet {
				for _, artifact := range detail.Artifacts {
					fmt.Fprintf(out, "  %s: %s\n", artifact.Kind, artifact.Path)
				}
			}
			return detail, nil
		case string(store.StatusError):
			return detail, fmt.Errorf("job %s failed: %s", jobID, detail.Job.ErrorMessage)
		}

		select {
		case <-ctx.Done():
			return detail, ctx.Err()
		case <-ticker.C:
		}
	}
}
