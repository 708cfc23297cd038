// Package progress recomputes the derived fields of course progress nodes.
package progress

import (
	"math"

	"github.com/example/lms/internal/core/schema"
)

// Percent returns round(100*completed/total), rounding halves up. Zero total is 0%.
func Percent(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Floor(100*float64(completed)/float64(total) + 0.5)
}

// Recalculate recomputes progress, completed, score and details from the module
// entries of p and stamps lastUpdated with now. p is not modified.
func Recalculate(p schema.Progress, now string) schema.Progress {
	out := p
	out.Modules = make(map[string]schema.ModuleProgress, len(p.Modules))
	scores := make(map[string]float64, len(p.Modules))

	completed := 0
	var scoreSum float64
	for id, entry := range p.Modules {
		if entry.ModuleID == "" {
			entry.ModuleID = id
		}
		out.Modules[id] = entry
		scores[id] = entry.Score
		if entry.Completed {
			completed++
			scoreSum += entry.Score
		}
	}

	total := len(p.Modules)
	out.Progress = Percent(completed, total)
	out.Completed = total > 0 && completed == total
	out.Score = 0
	if completed > 0 {
		out.Score = math.Round(scoreSum/float64(completed)*100) / 100
	}
	out.Details = schema.ProgressDetails{
		ModuleScores:     scores,
		CompletedModules: completed,
		TotalModules:     total,
	}
	if now != "" {
		out.LastUpdated = now
	}
	return out
}

// Summarize counts completed and active courses for a student satellite.
func Summarize(nodes []schema.Progress) schema.StudentProgress {
	var sum schema.StudentProgress
	for _, n := range nodes {
		if n.Completed {
			sum.CompletedCourses++
		} else {
			sum.ActiveCourses++
		}
	}
	return sum
}
