package prompt

import (
	"fmt"
	"strings"
)

// ExecutiveSummary builds the 2-3 sentence management summary prompt.
func ExecutiveSummary(critical, warning int) string {
	return fmt.Sprintf(`You are a field engineer writing an executive summary for technical management.

REQUIREMENTS:
- Write 2-3 direct, quantitative sentences
- State WHAT was inspected (specific equipment/system)
- Report KEY FINDINGS with numbers (e.g. "3 critical issues", "pressure 15%% below spec")
- Give OVERALL STATUS (operational, requires repair, shutdown recommended)
- Use active voice and technical precision
- NO vague language ("significant", "some", "various")

Critical Issues Found: %d
Warnings Found: %d

OUTPUT: Only the executive summary text (2-3 sentences). Do NOT include a section label.`, critical, warning)
}

// Scope builds the 1-2 sentence scope prompt around a resolved report type label.
func Scope(label string) string {
	return fmt.Sprintf(`You are a field engineer defining the inspection scope.

REQUIREMENTS:
- Write 1-2 concise sentences
- Specify EXACT equipment/systems inspected (with model numbers if available)
- State report type clearly: "%s"
- Mention key activities (installation, testing, measurement, visual inspection)
- Be specific and quantitative

OUTPUT: Only the scope text (1-2 sentences). Do NOT include a "Scope:" label.`, label)
}

// SiteConditionsNotDocumented is what the model is told to answer when nothing applies.
const SiteConditionsNotDocumented = "Site conditions not documented in field notes"

func SiteConditions() string {
	return fmt.Sprintf(`You are a hydraulic field engineer with 25+ years of experience documenting site conditions.

EXTRACT ONLY:
- Location: Building/floor/area/equipment tag
- Cleanliness: Clean, dusty, contaminated (be specific)
- Safety: Ventilation, hazards, PPE requirements
- Environmental: Temperature range, humidity, noise level
- Equipment condition: Age, maintenance status, wear patterns

RULES:
- Be direct and quantitative (e.g. "ambient temperature 32°C")
- If NO site conditions are mentioned, write: "%s"
- Use 2-3 complete sentences maximum

OUTPUT: Only site conditions text (2-3 sentences).`, SiteConditionsNotDocumented)
}

// NoVerificationDocumented is the sentinel list item when no testing is found.
const NoVerificationDocumented = "No verification testing documented"

func VerificationMethods() string {
	return fmt.Sprintf(`You are a hydraulic field engineer with 25+ years of experience extracting verification and testing methods from field notes.

IDENTIFY verification activities such as:
- Pressure testing and results
- Leak checks (pressure test, cylinder holding under load, response time)
- Functional testing (cycling, stroking, actuation)
- Performance measurements (flow, pressure, temperature)
- Visual inspection post-repair
- Acceptance criteria verification
- Commissioning tests

REQUIREMENTS:
- List only actual testing/verification performed
- Include test results or acceptance criteria if stated
- Be specific about method and outcome
- Maximum 8 items

OUTPUT: List of verification methods, one per line. Return "%s" if none found.`, NoVerificationDocumented)
}

// FinalResults summarizes outcomes against the work classification counts.
func FinalResults(completed, inProgress, required, critical, warning int) string {
	return fmt.Sprintf(`You are a hydraulic field engineer with 25+ years of experience summarizing inspection and repair outcomes.

WORK STATUS SUMMARY:
- Completed Work: %d items
- In-Progress Work: %d items
- Required Future Work: %d items
- Critical Issues: %d
- Warnings: %d

ADDRESS THESE POINTS:
- Current operational status after completed work
- Work verification and testing results
- Remaining issues requiring follow-up
- Timeline for outstanding corrective actions

REQUIREMENTS:
- Write 3-5 direct sentences, each on a new line
- Clearly state what WAS completed vs what REMAINS to be done
- Reference verification testing results
- Be specific about equipment status (operational, degraded, functional)
- Include timeline estimates for remaining work

OUTPUT: Final results text (3-5 sentences separated by periods). No label.`, completed, inProgress, required, critical, warning)
}

// Recommendations asks for additional items; the two standing items are merged by the caller.
func Recommendations(criticalTexts, warningTexts []string) string {
	return fmt.Sprintf(`You are a hydraulic field engineer with 25+ years of experience providing actionable maintenance recommendations.

MANDATORY ITEMS (always include):
1. Review parts inventory for critical spares based on inspection findings
2. Schedule preventive maintenance according to manufacturer guidelines and observed conditions

ADDITIONAL ITEMS (generate 1-3 based on findings):
- Specific repairs needed with timeline
- Further testing or monitoring required
- Equipment upgrades or replacements
- Training or procedure updates
- Safety improvements

REQUIREMENTS:
- Be direct and specific (not "consider repair" but "replace pump seal within 30 days")
- Quantify where possible (timelines, quantities, measurements)
- Prioritize by severity
- Maximum 5 recommendations total

Critical Issues: %s

Warnings: %s

OUTPUT: Recommendation text only, one per line, no numbers/bullets, maximum 5 items.`,
		strings.Join(criticalTexts, "; "), strings.Join(warningTexts, "; "))
}

func NextSteps() string {
	return `You are a hydraulic field engineering manager determining immediate next actions.

DECISION LOGIC:
- If warnings exist -> "Schedule maintenance within 30 days to address warning-level findings"
- If measurements needed -> "Prepare detailed quote for repairs based on collected measurements"
- If planning shutdown -> "Incorporate findings into next scheduled shutdown maintenance scope"
- If routine -> "Schedule routine follow-up inspection per maintenance schedule"

REQUIREMENTS:
- Write exactly 1 clear, directive sentence
- Include timeline if applicable
- Be specific about action type

OUTPUT: One sentence only describing next steps.`
}
