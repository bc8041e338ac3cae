package model

import (
	"testing"
	"time"
)

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("2025-06")
	if err != nil {
		t.Fatalf("ParsePeriod: %v", err)
	}
	if p.Year != 2025 || p.Month != time.June {
		t.Errorf("got %+v", p)
	}

	for _, bad := range []string{"", "2025", "2025-13", "2025-00", "06-2025", "2025/06"} {
		if _, err := ParsePeriod(bad); err == nil {
			t.Errorf("ParsePeriod(%q): expected error", bad)
		}
	}
}

func TestReportWindow(t *testing.T) {
	p := Period{Year: 2025, Month: time.June}
	from, to := p.ReportWindow()

	if got := from.Format(time.DateOnly); got != "2025-06-07" {
		t.Errorf("window start %s, want 2025-06-07", got)
	}
	if got := to.Format(time.DateOnly); got != "2025-07-07" {
		t.Errorf("window end %s, want 2025-07-07", got)
	}
}

func TestReportWindow_YearRollover(t *testing.T) {
	p := Period{Year: 2025, Month: time.December}
	from, to := p.ReportWindow()

	if got := from.Format(time.DateOnly); got != "2025-12-07" {
		t.Errorf("window start %s, want 2025-12-07", got)
	}
	if got := to.Format(time.DateOnly); got != "2026-01-07" {
		t.Errorf("window end %s, want 2026-01-07", got)
	}
}

func TestPeriodStart(t *testing.T) {
	p := Period{Year: 2025, Month: time.June}
	if got := p.Start().Format(time.DateOnly); got != "2025-06-01" {
		t.Errorf("start %s, want 2025-06-01", got)
	}
}

func TestSourceKindRetroactive(t *testing.T) {
	cases := map[SourceKind]bool{
		KindStandard:         false,
		KindNonStandard:      false,
		KindRetroStandard:    true,
		KindRetroNonStandard: true,
		KindOncoStandard:     false,
	}
	for kind, want := range cases {
		if got := kind.Retroactive(); got != want {
			t.Errorf("%s.Retroactive() = %v, want %v", kind, got, want)
		}
	}
}

func TestParseSourceKind(t *testing.T) {
	for _, k := range AllSourceKinds {
		got, err := ParseSourceKind(string(k))
		if err != nil || got != k {
			t.Errorf("ParseSourceKind(%q) = %v, %v", k, got, err)
		}
	}
	if _, err := ParseSourceKind("bogus"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestBatchStatusTerminal(t *testing.T) {
	terminal := map[BatchStatus]bool{
		BatchPending:    false,
		BatchStaging:    false,
		BatchCommitting: false,
		BatchValidating: false,
		BatchCommitted:  true,
		BatchRolledBack: true,
		BatchFailed:     true,
	}
	for status, want := range terminal {
		if got := status.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, got, want)
		}
	}
}
