package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"catchup/internal/api"
)

func newMetadataCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "metadata <url>",
		Short: "Probe a lecture URL without queueing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				md, err := client.Metadata(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, md)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%-10s %s\n", "Title:", md.Title)
				fmt.Fprintf(out, "%-10s %s\n", "Course:", md.CourseCode)
				fmt.Fprintf(out, "%-10s %s\n", "Date:", md.LectureDate)
				fmt.Fprintf(out, "%-10s %s\n", "Language:", md.LanguageSuggestion)
				fmt.Fprintf(out, "%-10s %s\n", "UID:", md.SourceUIDShort)
				fmt.Fprintf(out, "%-10s %s\n", "Duration:", formatDuration(md.DurationSec))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}
