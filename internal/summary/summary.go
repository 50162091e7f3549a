// Package summary renders the plain-text recap stored on every saved day.
package summary

import (
	"fmt"
	"strings"

	"github.com/Tiliavir/ghosttrack/internal/model"
)

const noData = "No job data available for this day."

// Generate renders the deterministic daily summary of log. Durations are
// floored to whole minutes.
func Generate(log model.DayLog) string {
	if log.Jobs == nil {
		return noData
	}

	idleMs, _ := log.Idle()
	var workSeconds int64
	lines := make([]string, 0, len(log.Jobs))
	for _, j := range log.Jobs {
		secs := jobSeconds(j)
		workSeconds += secs

		tasks := strings.Join(j.Notes, ", ")
		if tasks == "" {
			tasks = "No tasks logged"
		}
		lines = append(lines, fmt.Sprintf("- %s: %d sessions, %s. Tasks: %s",
			j.Name, len(j.Sessions), hoursMinutes(secs), tasks))
	}

	date := log.LogID
	if date == "" {
		date = log.Date
	}
	header := []string{
		fmt.Sprintf("Summary for %s:", date),
		fmt.Sprintf("- %d jobs worked, %s total, %s idle.",
			len(log.Jobs), hoursMinutes(workSeconds), hoursMinutes(idleMs/1000)),
	}
	return strings.Join(append(header, lines...), "\n")
}

func jobSeconds(j model.Job) int64 {
	if j.TotalTime != nil {
		return *j.TotalTime / 1000
	}
	var secs int64
	for _, s := range j.Sessions {
		secs += s.Duration / 1000
	}
	return secs
}

func hoursMinutes(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%dh %dm", seconds/3600, (seconds%3600)/60)
}
