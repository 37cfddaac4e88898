package analyzer

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"incidentbrief/pkg/models"
)

// ErrNoLogs is returned when the request carries no log lines to reason over.
var ErrNoLogs = errors.New("No logs provided")

// Analyze maps derived signals and sampled log lines onto a templated
// incident brief. It is a pure function: identical input yields identical
// output, and concurrent calls are safe.
func Analyze(req *models.AnalysisRequest) (*models.AnalysisOutput, error) {
	if req == nil || len(req.Logs) == 0 {
		return nil, ErrNoLogs
	}

	logLines := coerceNumber(req.Signals["log_lines"])
	errorCount := coerceNumber(req.Signals["errors"])
	warnCount := coerceNumber(req.Signals["warns"])
	timeouts := coerceNumber(req.Signals["timeouts"])
	http5xx := coerceNumber(req.Signals["http_5xx"])
	errorRate := coerceNumber(req.Signals["error_rate_pct"])

	severity := decideSeverity(errorCount, timeouts, http5xx, errorRate)
	confidence := decideConfidence(len(req.Logs), errorCount, timeouts, http5xx)

	return &models.AnalysisOutput{
		Severity:          severity,
		Confidence:        confidence,
		Summary:           summaryBySeverity[severity],
		RootCause:         composeRootCause(req.Logs),
		Actions:           append([]string(nil), recommendedActions...),
		BusinessImpact:    businessImpactBySeverity[severity],
		ExecutiveOneLiner: executiveOneLinerBySeverity[severity],
		BTPNextSteps:      append([]string(nil), btpNextSteps...),
		SignalHighlights:  formatHighlights(logLines, errorCount, warnCount, timeouts, http5xx, errorRate),
	}, nil
}

// coerceNumber converts a loosely typed signal value to a float64. Numeric
// strings are parsed; anything else, and any non-finite result, counts as 0.
func coerceNumber(value interface{}) float64 {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// decideSeverity applies the threshold table in fixed order, first match wins
func decideSeverity(errorCount, timeouts, http5xx, errorRate float64) models.Severity {
	switch {
	case http5xx >= 2 || timeouts >= 2 || errorRate >= 3:
		return models.SeverityHigh
	case http5xx >= 1 || timeouts >= 1 || errorCount >= 1:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// decideConfidence starts at Medium, upgrades on strong evidence, then
// downgrades on a thin sample. The downgrade runs last and overrides the
// upgrade: fewer than 3 lines is always Low confidence.
func decideConfidence(logCount int, errorCount, timeouts, http5xx float64) models.Confidence {
	confidence := models.ConfidenceMedium
	if logCount >= 6 && timeouts+http5xx+errorCount >= 2 {
		confidence = models.ConfidenceHigh
	}
	if logCount < 3 {
		confidence = models.ConfidenceLow
	}
	return confidence
}

// causeClause couples a textual signal found in log lines with the clause it
// contributes to the assembled root-cause sentence.
type causeClause struct {
	marker string
	clause string
}

var causeClauses = []causeClause{
	{"token_validation", "slow token validation in the authorization layer"},
	{"upstream timeout", "timeouts on calls to an upstream dependency"},
	{"circuit breaker", "a circuit breaker tripping open after repeated downstream failures"},
	{"no scale event", "the autoscaler pinned at its maximum instance count"},
}

const rootCauseFallback = "No single dominant driver stands out in the sampled lines; correlate with recent deployments and upstream dashboards."

func composeRootCause(logs []string) string {
	joined := strings.ToLower(strings.Join(logs, "\n"))

	var clauses []string
	for _, c := range causeClauses {
		if strings.Contains(joined, c.marker) {
			clauses = append(clauses, c.clause)
		}
	}

	if len(clauses) == 0 {
		return rootCauseFallback
	}
	return "Most likely driver: " + strings.Join(clauses, "; ")
}

// formatHighlights renders the six derived signals as "label: value" in a
// fixed order for display.
func formatHighlights(logLines, errorCount, warnCount, timeouts, http5xx, errorRate float64) []string {
	return []string{
		"log lines: " + formatNumber(logLines),
		"errors: " + formatNumber(errorCount),
		"warnings: " + formatNumber(warnCount),
		"timeouts: " + formatNumber(timeouts),
		"HTTP 5xx: " + formatNumber(http5xx),
		"error rate: " + formatNumber(errorRate) + "%",
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
