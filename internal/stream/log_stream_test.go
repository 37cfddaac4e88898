package stream

import (
	"testing"

	"incidentbrief/pkg/models"
)

// TestBriefFromLines tests the window-to-brief pipeline
func TestBriefFromLines(t *testing.T) {
	lines := []string{
		`2026-01-06T13:01:02.114Z service="auth" region="eu10" ERROR upstream timeout`,
		`2026-01-06T13:02:00.000Z service="auth" region="eu10" httpStatus=503 circuit breaker open`,
		`2026-01-06T13:02:10.551Z service="auth" region="eu10" INFO retrying`,
	}

	brief, err := BriefFromLines(lines)
	if err != nil {
		t.Fatalf("BriefFromLines error: %v", err)
	}

	if brief.ID == "" {
		t.Error("Expected a generated brief ID")
	}
	if brief.CreatedAt.IsZero() {
		t.Error("Expected a creation timestamp")
	}
	if brief.Incident.ServiceGuess != "auth" {
		t.Errorf("Expected service 'auth', got %q", brief.Incident.ServiceGuess)
	}
	// One error over three lines is a 33.3% error rate, which lands in the
	// High severity tier.
	if brief.Output.Severity != models.SeverityHigh {
		t.Errorf("Expected High severity, got %s", brief.Output.Severity)
	}
}

// TestBriefFromLines_EmptyWindow tests the error path for an empty window
func TestBriefFromLines_EmptyWindow(t *testing.T) {
	if _, err := BriefFromLines(nil); err == nil {
		t.Error("Expected error for empty window")
	}
	if _, err := BriefFromLines([]string{"   ", ""}); err == nil {
		t.Error("Expected error for blank-only window")
	}
}
