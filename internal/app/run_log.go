package app

import (
	"fmt"
	"strings"

	"github.com/example/lms/internal/logger"
	"github.com/example/lms/internal/ports/primary"
)

// runLog collects stage counters for a report and streams operator lines to
// the sink and the structured log.
type runLog struct {
	report *primary.RunReport
	sink   func(line string)
	log    *logger.Logger
}

func newRunLog(report *primary.RunReport, sink func(string), log *logger.Logger) *runLog {
	if sink == nil {
		sink = func(string) {}
	}
	return &runLog{report: report, sink: sink, log: log.With("run", report.RunID, "engine", report.Engine)}
}

func (r *runLog) stage(name string) *primary.StageReport {
	st := &primary.StageReport{Name: name}
	r.report.Stages = append(r.report.Stages, st)
	r.infof("▶ %s", name)
	return st
}

func (r *runLog) infof(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	r.sink(line)
	r.log.Info(line)
}

func (r *runLog) warnf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	r.sink("warning: " + line)
	r.log.Warn(line)
}

func (r *runLog) done(st *primary.StageReport) {
	parts := []string{
		fmt.Sprintf("%d processed", st.Processed),
		fmt.Sprintf("%d written", st.Written),
	}
	if st.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", st.Skipped))
	}
	if st.Placeholders > 0 {
		parts = append(parts, fmt.Sprintf("%d placeholders", st.Placeholders))
	}
	if st.Invalid > 0 {
		parts = append(parts, fmt.Sprintf("%d invalid", st.Invalid))
	}
	r.infof("✓ %s: %s", st.Name, strings.Join(parts, ", "))
}
