package models

import (
	"time"
)

// ParsedIncident is the structured summary derived from one block of raw log text
type ParsedIncident struct {
	ServiceGuess   string         `json:"serviceGuess"`
	RegionGuess    string         `json:"regionGuess"`
	TimeWindow     TimeWindow     `json:"timeWindow"`
	TopPatterns    []PatternCount `json:"topPatterns"`
	SampleLines    []string       `json:"sampleLines"`
	DerivedSignals Signals        `json:"derivedSignals"`
}

// TimeWindow spans the first and last timestamp found in the text, in
// document order. End is last-seen, not necessarily chronologically last.
type TimeWindow struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// PatternCount represents occurrences of one heuristic pattern tag
type PatternCount struct {
	Pattern string `json:"pattern"`
	Count   int    `json:"count"`
}

// Signals holds the numeric signals counted while parsing
type Signals struct {
	LogLines     int     `json:"log_lines"`
	Errors       int     `json:"errors"`
	Warns        int     `json:"warns"`
	Infos        int     `json:"infos"`
	Timeouts     int     `json:"timeouts"`
	HTTP5xx      int     `json:"http_5xx"`
	ErrorRatePct float64 `json:"error_rate_pct"`
}

// Map returns the signals keyed by their wire names, in the loosely typed
// shape the analyzer accepts from external callers.
func (s Signals) Map() map[string]interface{} {
	return map[string]interface{}{
		"log_lines":      float64(s.LogLines),
		"errors":         float64(s.Errors),
		"warns":          float64(s.Warns),
		"infos":          float64(s.Infos),
		"timeouts":       float64(s.Timeouts),
		"http_5xx":       float64(s.HTTP5xx),
		"error_rate_pct": s.ErrorRatePct,
	}
}

// Severity represents the incident impact tier
type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// Confidence represents how much sampled evidence backs the call
type Confidence string

const (
	ConfidenceLow    Confidence = "Low"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceHigh   Confidence = "High"
)

// AnalysisRequest is the analyzer input. Signals values may arrive as
// numbers or numeric strings depending on the caller.
type AnalysisRequest struct {
	Scenario string                 `json:"scenario,omitempty"`
	Service  string                 `json:"service,omitempty"`
	Region   string                 `json:"region,omitempty"`
	Signals  map[string]interface{} `json:"signals,omitempty"`
	Logs     []string               `json:"logs,omitempty"`
}

// AnalysisOutput is the templated incident brief
type AnalysisOutput struct {
	Severity          Severity   `json:"severity"`
	Confidence        Confidence `json:"confidence"`
	Summary           string     `json:"summary"`
	RootCause         string     `json:"rootCause"`
	Actions           []string   `json:"actions"`
	BusinessImpact    string     `json:"businessImpact"`
	ExecutiveOneLiner string     `json:"executiveOneLiner"`
	BTPNextSteps      []string   `json:"btpNextSteps"`
	SignalHighlights  []string   `json:"signalHighlights"`
}

// Brief pairs a parsed incident with its analysis for broadcasting
type Brief struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Incident  *ParsedIncident `json:"incident"`
	Output    *AnalysisOutput `json:"output"`
}
