package rules

import (
	"fmt"

	"github.com/dfarias/examload/internal/model"
)

// temporalExclusion applies the billing-period date filters.
//
// Retroactive sources describe exams performed strictly before the period:
// a performed date on or after the first day of the period month is
// rejected. All sources must report inside the period's report window
// (day 7 of the period month through day 7 of the following month, both
// inclusive). Rows whose dates cannot be verified are rejected rather than
// silently admitted, since the integrity validator re-checks the same
// windows against committed rows.
type temporalExclusion struct{}

func (temporalExclusion) Name() string { return "temporal_exclusion" }

func (temporalExclusion) Apply(row *Row, rc *Context) Outcome {
	if rc.Kind.Retroactive() {
		if row.PerformedAt == nil {
			return Reject(model.ReasonPerformedDateTooLate,
				"performed date missing or unparseable; retroactive cutoff cannot be verified")
		}
		if !row.PerformedAt.Before(rc.Period.Start()) {
			return Reject(model.ReasonPerformedDateTooLate,
				fmt.Sprintf("performed %s, retroactive cutoff is %s",
					row.PerformedAt.Format("2006-01-02"),
					rc.Period.Start().Format("2006-01-02")))
		}
	}

	from, to := rc.Period.ReportWindow()
	if row.ReportedAt == nil {
		return Reject(model.ReasonReportDateOutOfWindow,
			"report date missing or unparseable")
	}
	if row.ReportedAt.Before(from) || row.ReportedAt.After(to) {
		return Reject(model.ReasonReportDateOutOfWindow,
			fmt.Sprintf("reported %s, window is %s..%s",
				row.ReportedAt.Format("2006-01-02"),
				from.Format("2006-01-02"),
				to.Format("2006-01-02")))
	}
	return Accept()
}
