package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/ppiankov/csvspectre/internal/analyzer"
)

// SARIF 2.1.0 types, only the fields this tool fills in.

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool              sarifTool              `json:"tool"`
	AutomationDetails *sarifAutomationDetail `json:"automationDetails,omitempty"`
	Results           []sarifResult          `json:"results"`
}

type sarifAutomationDetail struct {
	ID string `json:"id"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string            `json:"id"`
	ShortDescription sarifMessage      `json:"shortDescription"`
	DefaultConfig    sarifRuleDefaults `json:"defaultConfiguration"`
}

type sarifRuleDefaults struct {
	Level string `json:"level"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifLocation struct {
	PhysicalLocation *sarifPhysicalLocation `json:"physicalLocation,omitempty"`
	LogicalLocations []sarifLogicalLocation `json:"logicalLocations,omitempty"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifLogicalLocation struct {
	Name               string `json:"name"`
	FullyQualifiedName string `json:"fullyQualifiedName"`
	Kind               string `json:"kind"`
}

var ruleDescriptions = map[analyzer.FindingType]string{
	analyzer.FindingMissingValues:   "Column has missing (empty) cells",
	analyzer.FindingNumericOutlier:  "Numeric value lies outside the interquartile fence",
	analyzer.FindingDateOutlier:     "Date lies outside the plausible date range",
	analyzer.FindingSuspiciousValue: "Text column contains a placeholder value",
	analyzer.FindingLoadFailure:     "File could not be read as CSV",
}

var severityToLevel = map[analyzer.Severity]string{
	analyzer.SeverityHigh:   "error",
	analyzer.SeverityMedium: "warning",
	analyzer.SeverityLow:    "note",
	analyzer.SeverityInfo:   "note",
}

// defaultSeverity is the severity the analyzer assigns to each finding type.
func defaultSeverity(ft analyzer.FindingType) analyzer.Severity {
	switch ft {
	case analyzer.FindingLoadFailure:
		return analyzer.SeverityHigh
	case analyzer.FindingNumericOutlier, analyzer.FindingDateOutlier:
		return analyzer.SeverityMedium
	default:
		return analyzer.SeverityLow
	}
}

func writeSARIF(w io.Writer, report *Report) error {
	// Collect unique rule IDs
	ruleSet := make(map[analyzer.FindingType]bool)
	for _, f := range report.Findings {
		ruleSet[f.Type] = true
	}

	ruleIDs := make([]string, 0, len(ruleSet))
	for ft := range ruleSet {
		ruleIDs = append(ruleIDs, string(ft))
	}
	sort.Strings(ruleIDs)

	rules := make([]sarifRule, 0, len(ruleIDs))
	for _, id := range ruleIDs {
		ft := analyzer.FindingType(id)
		desc := ruleDescriptions[ft]
		if desc == "" {
			desc = id
		}
		rules = append(rules, sarifRule{
			ID:               "csvspectre/" + id,
			ShortDescription: sarifMessage{Text: desc},
			DefaultConfig:    sarifRuleDefaults{Level: severityToLevel[defaultSeverity(ft)]},
		})
	}

	var results []sarifResult
	for _, f := range report.Findings {
		level := severityToLevel[f.Severity]
		if level == "" {
			level = "note"
		}

		msgText := f.Message
		if len(f.Detail) > 0 {
			keys := make([]string, 0, len(f.Detail))
			for k := range f.Detail {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				msgText += fmt.Sprintf(" [%s=%s]", k, f.Detail[k])
			}
		}

		loc := sarifLocation{
			PhysicalLocation: &sarifPhysicalLocation{
				ArtifactLocation: sarifArtifactLocation{URI: f.Dataset},
			},
		}
		if f.Column != "" {
			loc.LogicalLocations = []sarifLogicalLocation{{
				Name:               f.Column,
				FullyQualifiedName: location(f),
				Kind:               "column",
			}}
		}

		results = append(results, sarifResult{
			RuleID:    "csvspectre/" + string(f.Type),
			Level:     level,
			Message:   sarifMessage{Text: msgText},
			Locations: []sarifLocation{loc},
		})
	}

	log := sarifLog{
		Version: "2.1.0",
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json",
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:           "csvspectre",
						Version:        report.Metadata.Version,
						InformationURI: "https://github.com/ppiankov/csvspectre",
						Rules:          rules,
					},
				},
				Results: results,
			},
		},
	}
	if report.Metadata.RunID != "" {
		log.Runs[0].AutomationDetails = &sarifAutomationDetail{ID: "csvspectre/" + report.Metadata.RunID}
	}

	if log.Runs[0].Results == nil {
		log.Runs[0].Results = []sarifResult{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(log); err != nil {
		return fmt.Errorf("encode SARIF: %w", err)
	}
	return nil
}
