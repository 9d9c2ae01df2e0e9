package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"catchup/internal/api"
	"catchup/internal/deps"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status [job-id]",
		Short: "Show daemon status, or the status of a single job",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runJobStatus(ctx, cmd, args[0], jsonOut)
			}
			return runDaemonStatus(ctx, cmd, jsonOut)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

func runJobStatus(ctx *commandContext, cmd *cobra.Command, jobID string, jsonOut bool) error {
	return ctx.withClient(func(client *api.Client) error {
		detail, err := client.Job(cmd.Context(), jobID)
		if err != nil {
			if api.IsNotFound(err) {
				return fmt.Errorf("job %s not found", jobID)
			}
			return err
		}
		if jsonOut {
			return writeJSON(cmd, detail)
		}
		printJobDetail(cmd.OutOrStdout(), detail)
		return nil
	})
}

func printJobDetail(out io.Writer, detail *api.JobDetailResponse) {
	job := detail.Job
	fmt.Fprintf(out, "%-12s %s\n", "Job:", job.ID)
	fmt.Fprintf(out, "%-12s %s (%s)\n", "Status:", job.Status, formatProgress(job.Progress))
	if job.ErrorMessage != "" {
		fmt.Fprintf(out, "%-12s %s\n", "Error:", job.ErrorMessage)
	}
	fmt.Fprintf(out, "%-12s %s\n", "Language:", job.Language)
	fmt.Fprintf(out, "%-12s %s\n", "Created:", formatTimestamp(job.CreatedAt))
	fmt.Fprintf(out, "%-12s %s\n", "Started:", formatOptionalTime(job.StartedAt))
	fmt.Fprintf(out, "%-12s %s\n", "Finished:", formatOptionalTime(job.FinishedAt))
	if detail.Lecture != nil {
		fmt.Fprintf(out, "%-12s %s (%s, %s)\n", "Lecture:", detail.Lecture.ID, detail.Lecture.CourseCode, detail.Lecture.Date)
		fmt.Fprintf(out, "%-12s %s\n", "Title:", detail.Lecture.Title)
	}
	if len(detail.Artifacts) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable(artifactColumns, artifactRows(detail.Artifacts), artifactAligns))
	}
}

func runDaemonStatus(ctx *commandContext, cmd *cobra.Command, jsonOut bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	base := ctx.apiBaseURL()
	snapshot, err := api.NewClient(base).Status(cmd.Context())
	if err != nil {
		if !isConnectionError(err) {
			return wrapAPIError(err, base)
		}
		snapshot = nil
	}

	if jsonOut {
		if snapshot == nil {
			snapshot = &api.StatusResponse{}
		}
		return writeJSON(cmd, snapshot)
	}

	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(stdout, line)
	}
	if snapshot == nil {
		fmt.Fprintln(stdout, renderStatusLine("Daemon", statusError, fmt.Sprintf("not reachable at %s; start it with `catchup serve`", base), colorize))
	} else {
		fmt.Fprintln(stdout, renderStatusLine("Daemon", statusOK, fmt.Sprintf("running (pid %d)", snapshot.PID), colorize))
		clients := "real"
		if snapshot.UseFakeClients {
			clients = "fake"
		}
		fmt.Fprintln(stdout, renderStatusLine("Stage clients", statusInfo, clients, colorize))
		dbKind, dbDetail := statusOK, snapshot.Database.Path
		if !snapshot.Database.Healthy {
			dbKind, dbDetail = statusError, "health check failed"
		}
		fmt.Fprintln(stdout, renderStatusLine("Database", dbKind, dbDetail, colorize))
		fmt.Fprintln(stdout, renderStatusLine("Workers", statusInfo, fmt.Sprintf("%d (queued %d of %d)", snapshot.Queue.Workers, snapshot.Queue.Queued, snapshot.Queue.QueueCapacity), colorize))
	}
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Dependencies", colorize) {
		fmt.Fprintln(stdout, line)
	}
	for _, line := range dependencyLines(deps.CheckBinaries(deps.Required(cfg)), colorize) {
		fmt.Fprintln(stdout, line)
	}
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Jobs", colorize) {
		fmt.Fprintln(stdout, line)
	}
	switch {
	case snapshot == nil:
		fmt.Fprintln(stdout, "Daemon offline; job counts unavailable")
	case snapshot.Jobs.Total == 0:
		fmt.Fprintln(stdout, "No jobs recorded")
	default:
		rows := buildJobCountRows(snapshot.Jobs)
		fmt.Fprintln(stdout, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
	}
	return nil
}

func dependencyLines(statuses []deps.Status, colorize bool) []string {
	lines := make([]string, 0, len(statuses)+1)
	missing := make([]string, 0)
	for _, status := range statuses {
		if status.Available {
			lines = append(lines, renderStatusLine(status.Name, statusOK, fmt.Sprintf("Ready (command: %s)", status.Command), colorize))
			continue
		}
		detail := strings.TrimSpace(status.Detail)
		if detail == "" {
			detail = "not available"
		}
		kind := statusError
		if status.Optional {
			kind = statusWarn
		}
		lines = append(lines, renderStatusLine(status.Name, kind, detail, colorize))
		if !status.Optional {
			missing = append(missing, status.Name)
		}
	}
	if len(missing) > 0 {
		lines = append(lines, renderStatusLine("Missing", statusWarn, strings.Join(missing, ", "), colorize))
	}
	return lines
}

func buildJobCountRows(counts api.JobCounts) [][]string {
	return [][]string{
		{"Queued", strconv.Itoa(counts.Queued)},
		{"Processing", strconv.Itoa(counts.Processing)},
		{"Done", strconv.Itoa(counts.Done)},
		{"Errored", strconv.Itoa(counts.Errored)},
		{"Total", strconv.Itoa(counts.Total)},
	}
}
