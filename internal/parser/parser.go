package parser

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"incidentbrief/pkg/models"
)

// ErrNoText is returned when the input is empty after de-markup and trimming.
var ErrNoText = errors.New("No text provided")

const (
	maxSampleLines = 10
	maxTopPatterns = 6

	unknownService = "BTP Service (unknown)"
	unknownRegion  = "unknown"
)

var (
	// token=value or token="quoted value"
	kvPattern = regexp.MustCompile(`(\w+)=("[^"]*"|\S+)`)

	// ISO-8601 with milliseconds and Z suffix, e.g. 2026-01-06T13:01:02.114Z
	timestampPattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z`)
)

// heuristic is one named pattern tag matched via substring detection.
// A single line may contribute to several tags at once.
type heuristic struct {
	tag     string
	matches func(upperLine string) bool
}

var heuristics = []heuristic{
	{"token_validation_slow", func(s string) bool { return strings.Contains(s, "TOKEN_VALIDATION") }},
	{"upstream_timeout", func(s string) bool { return strings.Contains(s, "UPSTREAM TIMEOUT") }},
	{"downstream_instability", func(s string) bool { return strings.Contains(s, "DOWNSTREAM") }},
	{"circuit_breaker_open", func(s string) bool { return strings.Contains(s, "CIRCUIT BREAKER") }},
	{"autoscaler_max_reached", func(s string) bool {
		return strings.Contains(s, "NO SCALE EVENT") || strings.Contains(s, "MAX REACHED")
	}},
}

// Parse turns a block of raw log text into a ParsedIncident. The input may
// be a plain text dump or a rich-text (RTF) export, which is unwrapped
// first. Returns ErrNoText when nothing remains after unwrapping.
func Parse(rawText string) (*models.ParsedIncident, error) {
	text := stripRTF(rawText)
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoText
	}

	lines := splitLines(text)
	if len(lines) == 0 {
		return nil, ErrNoText
	}

	var (
		errorCount, warnCount, infoCount int
		timeoutCount, http5xxCount       int
		timestamps                       []string
		services                         = newCounter()
		regions                          = newCounter()
		tags                             = newCounter()
	)

	for _, line := range lines {
		upper := strings.ToUpper(line)
		padded := " " + upper + " "

		// Level classification is mutually exclusive: ERROR wins over WARN
		// wins over INFO when a line carries several markers.
		switch {
		case strings.Contains(padded, " ERROR "):
			errorCount++
		case strings.Contains(padded, " WARN "):
			warnCount++
		case strings.Contains(padded, " INFO "):
			infoCount++
		}

		// Timeouts count independently of the level pick.
		if strings.Contains(upper, "TIMEOUT") {
			timeoutCount++
		}

		fields := extractFields(line)
		if v, ok := fields["service"]; ok {
			services.add(v)
		}
		if v, ok := fields["region"]; ok {
			regions.add(v)
		}

		status, ok := fields["httpStatus"]
		if !ok {
			status, ok = fields["status"]
		}
		if ok {
			if code, err := strconv.ParseFloat(status, 64); err == nil && code >= 500 && code <= 599 {
				http5xxCount++
			}
		}

		timestamps = append(timestamps, timestampPattern.FindAllString(line, -1)...)

		for _, h := range heuristics {
			if h.matches(upper) {
				tags.add(h.tag)
			}
		}
	}

	errorRate := math.Round(float64(errorCount)/float64(len(lines))*1000) / 10

	window := models.TimeWindow{}
	if len(timestamps) > 0 {
		window.Start = timestamps[0]
		window.End = timestamps[len(timestamps)-1]
	}

	sampleSize := maxSampleLines
	if len(lines) < sampleSize {
		sampleSize = len(lines)
	}

	return &models.ParsedIncident{
		ServiceGuess: services.mostFrequent(unknownService),
		RegionGuess:  regions.mostFrequent(unknownRegion),
		TimeWindow:   window,
		TopPatterns:  tags.top(maxTopPatterns),
		SampleLines:  lines[:sampleSize],
		DerivedSignals: models.Signals{
			LogLines:     len(lines),
			Errors:       errorCount,
			Warns:        warnCount,
			Infos:        infoCount,
			Timeouts:     timeoutCount,
			HTTP5xx:      http5xxCount,
			ErrorRatePct: errorRate,
		},
	}, nil
}

// splitLines breaks raw text into trimmed, non-empty lines in document order
func splitLines(text string) []string {
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		if line := strings.TrimSpace(raw); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// extractFields pulls key=value and key="quoted value" pairs from a line.
// The first occurrence of a key wins.
func extractFields(line string) map[string]string {
	fields := make(map[string]string)
	for _, m := range kvPattern.FindAllStringSubmatch(line, -1) {
		key, value := m[1], m[2]
		if len(value) >= 2 && value[0] == '"' {
			value = value[1 : len(value)-1]
		}
		if _, seen := fields[key]; !seen {
			fields[key] = value
		}
	}
	return fields
}

// counter tallies string values while remembering first-insertion order, so
// ties resolve to the value seen earliest in the document.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(value string) {
	if _, seen := c.counts[value]; !seen {
		c.order = append(c.order, value)
	}
	c.counts[value]++
}

func (c *counter) mostFrequent(fallback string) string {
	best, bestCount := fallback, 0
	for _, value := range c.order {
		if c.counts[value] > bestCount {
			best, bestCount = value, c.counts[value]
		}
	}
	return best
}

// top returns up to limit entries sorted by count descending. The sort is
// stable over first-insertion order, so equal counts keep encounter order.
func (c *counter) top(limit int) []models.PatternCount {
	if len(c.order) == 0 {
		return nil
	}

	result := make([]models.PatternCount, 0, len(c.order))
	for _, value := range c.order {
		result = append(result, models.PatternCount{Pattern: value, Count: c.counts[value]})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Count > result[j].Count
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result
}
