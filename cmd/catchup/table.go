package main

import (
	"catchup/internal/api"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

var (
	jobColumns = []string{"Job", "Lecture", "Status", "Progress", "Created"}
	jobAligns  = []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft}
)

func jobRows(jobs []api.JobView) [][]string {
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, []string{
			job.ID,
			job.LectureID,
			job.Status,
			formatProgress(job.Progress),
			formatTimestamp(job.CreatedAt),
		})
	}
	return rows
}

var (
	lectureColumns = []string{"Lecture", "Course", "Date", "Title"}
	lectureAligns  = []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft}
)

func lectureRows(lectures []api.LectureView) [][]string {
	rows := make([][]string, 0, len(lectures))
	for _, lecture := range lectures {
		rows = append(rows, []string{
			lecture.ID,
			lecture.CourseCode,
			lecture.Date,
			lecture.Title,
		})
	}
	return rows
}

var (
	artifactColumns = []string{"Artifact", "Path"}
	artifactAligns  = []columnAlignment{alignLeft, alignLeft}
)

func artifactRows(artifacts []api.ArtifactView) [][]string {
	rows := make([][]string, 0, len(artifacts))
	for _, artifact := range artifacts {
		rows = append(rows, []string{artifact.Kind, artifact.Path})
	}
	return rows
}
