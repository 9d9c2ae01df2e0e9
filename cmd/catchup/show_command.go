package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"catchup/internal/api"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <lecture-id>",
		Short: "Show a lecture with its artifacts and job history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				detail, err := client.Lecture(cmd.Context(), args[0])
				if err != nil {
					if api.IsNotFound(err) {
						return fmt.Errorf("lecture %s not found", args[0])
					}
					return err
				}
				if jsonOut {
					return writeJSON(cmd, detail)
				}
				printLectureDetail(cmd.OutOrStdout(), detail)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

func printLectureDetail(out io.Writer, detail *api.LectureDetailResponse) {
	lecture := detail.Lecture
	fmt.Fprintf(out, "%-10s %s\n", "Lecture:", lecture.ID)
	fmt.Fprintf(out, "%-10s %s\n", "Course:", lecture.CourseCode)
	fmt.Fprintf(out, "%-10s %s\n", "Date:", lecture.Date)
	fmt.Fprintf(out, "%-10s %s\n", "Title:", lecture.Title)
	fmt.Fprintf(out, "%-10s %s\n", "Source:", lecture.SourceURL)
	if len(detail.Artifacts) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable(artifactColumns, artifactRows(detail.Artifacts), artifactAligns))
	}
	if len(detail.Jobs) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable(jobColumns, jobRows(detail.Jobs), jobAligns))
	}
}
