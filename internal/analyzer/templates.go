package analyzer

import (
	"incidentbrief/pkg/models"
)

// Narrative fragments live in lookup tables keyed by severity so the
// mapping is data, not control flow.

var summaryBySeverity = map[models.Severity]string{
	models.SeverityHigh:   "Multiple failure signals point to an active service degradation with customer-visible impact.",
	models.SeverityMedium: "Elevated error activity detected; the service is degraded but largely functional.",
	models.SeverityLow:    "Log activity looks routine; no significant failure signals were detected.",
}

var businessImpactBySeverity = map[models.Severity]string{
	models.SeverityHigh:   "Customer-facing requests are failing or timing out; expect support tickets and SLA exposure if the condition persists.",
	models.SeverityMedium: "Some requests are slower or failing intermittently; most customers remain unaffected.",
	models.SeverityLow:    "No measurable customer impact at this time.",
}

var executiveOneLinerBySeverity = map[models.Severity]string{
	models.SeverityHigh:   "Active incident with customer impact; mitigation is in progress.",
	models.SeverityMedium: "Partial degradation under investigation; impact contained.",
	models.SeverityLow:    "Systems operating normally; monitoring continues.",
}

// recommendedActions and btpNextSteps are deliberately constant for every
// input: the brief always carries the same five-step runbooks.
var recommendedActions = []string{
	"Check the affected service's health dashboard and recent alert history",
	"Correlate the incident window with recent deployments and configuration changes",
	"Inspect upstream dependency latency and error rates for the same window",
	"Verify autoscaler activity and current instance headroom",
	"Capture a support snapshot of the raw logs before they rotate out",
}

var btpNextSteps = []string{
	"Review the BTP subaccount's service instance status in the cockpit",
	"Check XSUAA token service latency and certificate expiry dates",
	"Confirm destination and connectivity service configuration is unchanged",
	"Open a support incident with the captured log sample if degradation persists",
	"Schedule a post-incident review once the service is stable",
}
