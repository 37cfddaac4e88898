package parser

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

const scenarioText = "2026-01-06T13:01:02.114Z service=\"auth\" region=\"eu10\" ERROR upstream timeout\n" +
	"2026-01-06T13:02:00.000Z service=\"auth\" region=\"eu10\" httpStatus=503 circuit breaker open"

// TestParse_EmptyInput tests rejection of empty and whitespace-only text
func TestParse_EmptyInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\n\t\n"} {
		_, err := Parse(input)
		if !errors.Is(err, ErrNoText) {
			t.Errorf("Parse(%q): expected ErrNoText, got %v", input, err)
		}
	}
}

// TestParse_Scenario tests the full two-line reference scenario
func TestParse_Scenario(t *testing.T) {
	incident, err := Parse(scenarioText)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if incident.ServiceGuess != "auth" {
		t.Errorf("Expected service guess 'auth', got %q", incident.ServiceGuess)
	}
	if incident.RegionGuess != "eu10" {
		t.Errorf("Expected region guess 'eu10', got %q", incident.RegionGuess)
	}

	s := incident.DerivedSignals
	if s.LogLines != 2 {
		t.Errorf("Expected 2 log lines, got %d", s.LogLines)
	}
	if s.Errors != 1 {
		t.Errorf("Expected 1 error, got %d", s.Errors)
	}
	if s.Timeouts != 1 {
		t.Errorf("Expected 1 timeout, got %d", s.Timeouts)
	}
	if s.HTTP5xx != 1 {
		t.Errorf("Expected 1 HTTP 5xx, got %d", s.HTTP5xx)
	}
	if s.ErrorRatePct != 50.0 {
		t.Errorf("Expected error rate 50.0, got %v", s.ErrorRatePct)
	}

	if incident.TimeWindow.Start != "2026-01-06T13:01:02.114Z" {
		t.Errorf("Unexpected window start %q", incident.TimeWindow.Start)
	}
	if incident.TimeWindow.End != "2026-01-06T13:02:00.000Z" {
		t.Errorf("Unexpected window end %q", incident.TimeWindow.End)
	}

	found := map[string]int{}
	for _, p := range incident.TopPatterns {
		found[p.Pattern] = p.Count
	}
	if found["upstream_timeout"] != 1 {
		t.Errorf("Expected upstream_timeout count 1, got %d", found["upstream_timeout"])
	}
	if found["circuit_breaker_open"] != 1 {
		t.Errorf("Expected circuit_breaker_open count 1, got %d", found["circuit_breaker_open"])
	}
}

// TestParse_LevelPriority tests the mutually exclusive level classification
func TestParse_LevelPriority(t *testing.T) {
	incident, err := Parse("ERROR WARN INFO all markers on one line\nWARN INFO two markers\nINFO just info")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	s := incident.DerivedSignals
	if s.Errors != 1 {
		t.Errorf("Expected 1 error, got %d", s.Errors)
	}
	if s.Warns != 1 {
		t.Errorf("Expected 1 warn, got %d", s.Warns)
	}
	if s.Infos != 1 {
		t.Errorf("Expected 1 info, got %d", s.Infos)
	}
}

// TestParse_WholeWordTokens tests that level tokens only match as whole words
func TestParse_WholeWordTokens(t *testing.T) {
	incident, err := Parse("ERRORS were seen\nWARNING issued\nINFORMATIONAL note")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	s := incident.DerivedSignals
	if s.Errors != 0 || s.Warns != 0 || s.Infos != 0 {
		t.Errorf("Expected no level matches, got errors=%d warns=%d infos=%d", s.Errors, s.Warns, s.Infos)
	}
}

// TestParse_TimeoutIndependent tests that a line counts as error and timeout
func TestParse_TimeoutIndependent(t *testing.T) {
	incident, err := Parse("2026-01-06T13:01:02.114Z ERROR request timeout after 30s")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	s := incident.DerivedSignals
	if s.Errors != 1 {
		t.Errorf("Expected 1 error, got %d", s.Errors)
	}
	if s.Timeouts != 1 {
		t.Errorf("Expected 1 timeout, got %d", s.Timeouts)
	}
}

// TestParse_ServiceTieBreak tests the first-seen tie-break on equal counts
func TestParse_ServiceTieBreak(t *testing.T) {
	incident, err := Parse("service=auth a\nservice=billing b\nservice=auth c\nservice=billing d")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if incident.ServiceGuess != "auth" {
		t.Errorf("Expected first-seen 'auth' to win the tie, got %q", incident.ServiceGuess)
	}
}

// TestParse_Sentinels tests fallback guesses when no fields are present
func TestParse_Sentinels(t *testing.T) {
	incident, err := Parse("a line without any fields")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if incident.ServiceGuess != "BTP Service (unknown)" {
		t.Errorf("Expected service sentinel, got %q", incident.ServiceGuess)
	}
	if incident.RegionGuess != "unknown" {
		t.Errorf("Expected region sentinel, got %q", incident.RegionGuess)
	}
}

// TestParse_StatusKeyFallback tests httpStatus taking precedence over status
func TestParse_StatusKeyFallback(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected int
	}{
		{"HTTPStatusKey", "httpStatus=502 gateway error", 1},
		{"StatusKey", "status=500 failed", 1},
		{"HTTPStatusWins", "httpStatus=200 status=503 ok", 0},
		{"NonNumeric", "status=timeout failed", 0},
		{"Below500", "httpStatus=499 client closed", 0},
		{"Above599", "httpStatus=600 bogus", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			incident, err := Parse(tc.line)
			if err != nil {
				t.Fatalf("Parse error: %v", err)
			}
			if incident.DerivedSignals.HTTP5xx != tc.expected {
				t.Errorf("Expected %d HTTP 5xx, got %d", tc.expected, incident.DerivedSignals.HTTP5xx)
			}
		})
	}
}

// TestParse_QuotedValues tests unquoting of key="quoted value" pairs
func TestParse_QuotedValues(t *testing.T) {
	incident, err := Parse(`service="destination service" region=us20 ok`)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if incident.ServiceGuess != "destination service" {
		t.Errorf("Expected unquoted service, got %q", incident.ServiceGuess)
	}
	if incident.RegionGuess != "us20" {
		t.Errorf("Expected region 'us20', got %q", incident.RegionGuess)
	}
}

// TestParse_TimeWindowDocumentOrder tests that end is last-seen, not latest
func TestParse_TimeWindowDocumentOrder(t *testing.T) {
	incident, err := Parse("2026-01-06T14:00:00.000Z later first\n2026-01-06T13:00:00.000Z earlier second")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if incident.TimeWindow.Start != "2026-01-06T14:00:00.000Z" {
		t.Errorf("Expected first-seen start, got %q", incident.TimeWindow.Start)
	}
	if incident.TimeWindow.End != "2026-01-06T13:00:00.000Z" {
		t.Errorf("Expected last-seen end, got %q", incident.TimeWindow.End)
	}
}

// TestParse_NoTimestamps tests that the window stays empty without matches
func TestParse_NoTimestamps(t *testing.T) {
	incident, err := Parse("no timestamps here\n2026-01-06 13:00:00 not the right shape")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if incident.TimeWindow.Start != "" || incident.TimeWindow.End != "" {
		t.Errorf("Expected empty window, got %+v", incident.TimeWindow)
	}
}

// TestParse_PatternRanking tests descending sort with stable tie order
func TestParse_PatternRanking(t *testing.T) {
	incident, err := Parse("UPSTREAM TIMEOUT once\nDOWNSTREAM flap\nDOWNSTREAM flap again\nCIRCUIT BREAKER open")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	expected := []struct {
		pattern string
		count   int
	}{
		{"downstream_instability", 2},
		{"upstream_timeout", 1},
		{"circuit_breaker_open", 1},
	}

	if len(incident.TopPatterns) != len(expected) {
		t.Fatalf("Expected %d patterns, got %d", len(expected), len(incident.TopPatterns))
	}
	for i, e := range expected {
		got := incident.TopPatterns[i]
		if got.Pattern != e.pattern || got.Count != e.count {
			t.Errorf("Pattern %d: expected %s=%d, got %s=%d", i, e.pattern, e.count, got.Pattern, got.Count)
		}
	}
}

// TestParse_MultiTagLine tests one line feeding several pattern counters
func TestParse_MultiTagLine(t *testing.T) {
	incident, err := Parse("UPSTREAM TIMEOUT while CIRCUIT BREAKER half-open, NO SCALE EVENT recorded")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if len(incident.TopPatterns) != 3 {
		t.Errorf("Expected 3 tags from one line, got %d", len(incident.TopPatterns))
	}
}

// TestParse_SampleLines tests first-N sampling in original order
func TestParse_SampleLines(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}

	incident, err := Parse(b.String())
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if len(incident.SampleLines) != 10 {
		t.Fatalf("Expected 10 sample lines, got %d", len(incident.SampleLines))
	}
	for i, line := range incident.SampleLines {
		expected := fmt.Sprintf("line %d", i)
		if line != expected {
			t.Errorf("Sample %d: expected %q, got %q", i, expected, line)
		}
	}
	if incident.DerivedSignals.LogLines != 15 {
		t.Errorf("Expected 15 log lines, got %d", incident.DerivedSignals.LogLines)
	}
}

// TestParse_ErrorRateRounding tests rounding to one decimal place
func TestParse_ErrorRateRounding(t *testing.T) {
	incident, err := Parse("ERROR one\nfine\nfine")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if incident.DerivedSignals.ErrorRatePct != 33.3 {
		t.Errorf("Expected error rate 33.3, got %v", incident.DerivedSignals.ErrorRatePct)
	}
}

// TestStripRTF tests de-markup of rich-text pastes
func TestStripRTF(t *testing.T) {
	t.Run("ParagraphBreaks", func(t *testing.T) {
		input := `{\rtf1\ansi service=auth ERROR boom\par service=auth WARN slow}`
		incident, err := Parse(input)
		if err != nil {
			t.Fatalf("Parse error: %v", err)
		}
		if incident.DerivedSignals.LogLines != 2 {
			t.Errorf("Expected 2 lines after de-markup, got %d", incident.DerivedSignals.LogLines)
		}
		if incident.DerivedSignals.Errors != 1 || incident.DerivedSignals.Warns != 1 {
			t.Errorf("Expected 1 error and 1 warn, got %d and %d",
				incident.DerivedSignals.Errors, incident.DerivedSignals.Warns)
		}
		if incident.ServiceGuess != "auth" {
			t.Errorf("Expected service 'auth', got %q", incident.ServiceGuess)
		}
	})

	t.Run("HexEscapes", func(t *testing.T) {
		out := stripRTF(`{\rtf1 caf\'e9 ERROR x}`)
		if !strings.Contains(out, "café") {
			t.Errorf("Expected decoded hex escape, got %q", out)
		}
	})

	t.Run("PassThrough", func(t *testing.T) {
		plain := `service=auth {not rtf} \par literal`
		if out := stripRTF(plain); out != plain {
			t.Errorf("Non-RTF text should pass through unchanged, got %q", out)
		}
	})
}
