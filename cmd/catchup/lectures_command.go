package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"catchup/internal/api"
)

func newLecturesCommand(ctx *commandContext) *cobra.Command {
	var course string
	var date string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "lectures",
		Short: "Browse processed lectures by course and date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if date != "" && course == "" {
				return errors.New("--date requires --course")
			}
			return ctx.withClient(func(client *api.Client) error {
				switch {
				case course == "":
					return listCourses(cmd, client, jsonOut)
				case date == "":
					return listCourseLectures(cmd, client, course, jsonOut)
				default:
					return listDateLectures(cmd, client, course, date, jsonOut)
				}
			})
		},
	}

	cmd.Flags().StringVar(&course, "course", "", "Filter by course code")
	cmd.Flags().StringVar(&date, "date", "", "Filter by lecture date (requires --course)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

func listCourses(cmd *cobra.Command, client *api.Client, jsonOut bool) error {
	resp, err := client.Courses(cmd.Context())
	if err != nil {
		return err
	}
	if jsonOut {
		return writeJSON(cmd, resp)
	}
	if len(resp.Courses) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No lectures recorded")
		return nil
	}
	rows := make([][]string, 0, len(resp.Courses))
	for _, course := range resp.Courses {
		rows = append(rows, []string{course})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Course"}, rows, []columnAlignment{alignLeft}))
	return nil
}

func listCourseLectures(cmd *cobra.Command, client *api.Client, course string, jsonOut bool) error {
	dates, err := client.CourseDates(cmd.Context(), course)
	if err != nil {
		return err
	}

	var lectures []api.LectureView
	for _, date := range dates.Dates {
		resp, err := client.CourseLectures(cmd.Context(), course, date)
		if err != nil {
			return err
		}
		lectures = append(lectures, resp.Lectures...)
	}
	if jsonOut {
		return writeJSON(cmd, api.LectureListResponse{Lectures: lectures})
	}
	if len(lectures) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No lectures recorded for %s\n", course)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(lectureColumns, lectureRows(lectures), lectureAligns))
	return nil
}

func listDateLectures(cmd *cobra.Command, client *api.Client, course, date string, jsonOut bool) error {
	resp, err := client.CourseLectures(cmd.Context(), course, date)
	if err != nil {
		return err
	}
	if jsonOut {
		return writeJSON(cmd, resp)
	}
	if len(resp.Lectures) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No lectures recorded for %s on %s\n", course, date)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(lectureColumns, lectureRows(resp.Lectures), lectureAligns))
	return nil
}
