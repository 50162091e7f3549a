package workday

import (
	"sort"

	"github.com/Tiliavir/ghosttrack/internal/model"
)

// Interval is a half-open span [Start, End) in epoch milliseconds.
type Interval struct {
	Start int64
	End   int64
}

// Span is the union of closed work intervals across jobs.
type Span struct {
	Work       int64
	FirstStart *int64
	LastEnd    *int64
}

// Merge sorts intervals and joins overlapping or touching ones. Empty and
// inverted intervals are dropped.
func Merge(intervals []Interval) []Interval {
	valid := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.End > iv.Start {
			valid = append(valid, iv)
		}
	}
	if len(valid) == 0 {
		return nil
	}
	sort.Slice(valid, func(a, b int) bool { return valid[a].Start < valid[b].Start })

	merged := []Interval{valid[0]}
	for _, iv := range valid[1:] {
		last := &merged[len(merged)-1]
		if iv.Start <= last.End {
			if iv.End > last.End {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// MergeIntervals merges the closed sessions of jobs and reports total work
// together with the first start and last end.
func MergeIntervals(jobs []model.Job) Span {
	merged := Merge(closedIntervals(jobs))
	if len(merged) == 0 {
		return Span{}
	}
	var work int64
	for _, iv := range merged {
		work += iv.End - iv.Start
	}
	return Span{
		Work:       work,
		FirstStart: model.Int64(merged[0].Start),
		LastEnd:    model.Int64(merged[len(merged)-1].End),
	}
}

func closedIntervals(jobs []model.Job) []Interval {
	var out []Interval
	for _, j := range jobs {
		for _, s := range j.Sessions {
			if s.Closed() {
				out = append(out, Interval{Start: *s.StartTime, End: *s.EndTime})
			}
		}
	}
	return out
}

// workWithin returns the work time, closed sessions and running jobs
// included, that falls inside [from, to).
func workWithin(jobs []model.Job, from, to int64) int64 {
	all := closedIntervals(jobs)
	for _, j := range jobs {
		if j.IsClockedIn && j.StartTime != nil {
			all = append(all, Interval{Start: *j.StartTime, End: to})
		}
	}

	var work int64
	for _, iv := range Merge(all) {
		start, end := max(iv.Start, from), min(iv.End, to)
		if end > start {
			work += end - start
		}
	}
	return work
}
