package ledger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

type staticDrifts struct{ drifts []Drift }

func (s staticDrifts) Drifts(context.Context) ([]Drift, error) { return s.drifts, nil }

func TestDriftAuditor_ReportsDrift(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	a := NewDriftAuditor(staticDrifts{drifts: []Drift{
		{BillID: "B1", SummaryTotal: dec("100"), AuthoritTotal: dec("150")},
	}}, log)

	a.Run(context.Background())

	out := buf.String()
	if !strings.Contains(out, "discount drift detected") || !strings.Contains(out, "B1") {
		t.Errorf("expected drift report, got %s", out)
	}
}

func TestDriftAuditor_CleanRun(t *testing.T) {
	var buf bytes.Buffer
	a := NewDriftAuditor(staticDrifts{}, zerolog.New(&buf))
	a.Run(context.Background())
	if !strings.Contains(buf.String(), "clean") {
		t.Errorf("expected clean audit log, got %s", buf.String())
	}
}
