package reporter

import (
	"crypto/sha256"
	"fmt"
	"io"
	"net/url"
)

// SpectreHubEnvelope is the spectre/v1 cross-tool ingestion format.
type SpectreHubEnvelope struct {
	Schema    string              `json:"schema"`
	Tool      string              `json:"tool"`
	Version   string              `json:"version"`
	RunID     string              `json:"run_id,omitempty"`
	Timestamp string              `json:"timestamp"`
	Target    SpectreHubTarget    `json:"target"`
	Findings  []SpectreHubFinding `json:"findings"`
	Summary   SpectreHubSummary   `json:"summary"`
}

// SpectreHubTarget describes the analyzed data set.
type SpectreHubTarget struct {
	Type    string `json:"type"`
	URIHash string `json:"uri_hash"`
	Files   int    `json:"files"`
}

// SpectreHubFinding is a single finding in the spectre/v1 format.
type SpectreHubFinding struct {
	ID       string         `json:"id"`
	Severity string         `json:"severity"`
	Location string         `json:"location"`
	Message  string         `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// SpectreHubSummary counts findings by severity.
type SpectreHubSummary struct {
	Total  int `json:"total"`
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
	Info   int `json:"info"`
}

// HashURI produces a sha256 hash of the URI with credentials stripped.
func HashURI(rawURI string) string {
	u, err := url.Parse(rawURI)
	if err != nil {
		h := sha256.Sum256([]byte(rawURI))
		return fmt.Sprintf("sha256:%x", h)
	}
	u.User = nil
	safe := u.String()
	h := sha256.Sum256([]byte(safe))
	return fmt.Sprintf("sha256:%x", h)
}

func writeSpectreHub(w io.Writer, report *Report) error {
	envelope := SpectreHubEnvelope{
		Schema:    "spectre/v1",
		Tool:      "csvspectre",
		Version:   report.Metadata.Version,
		RunID:     report.Metadata.RunID,
		Timestamp: report.Metadata.Timestamp,
		Target: SpectreHubTarget{
			Type:    "csv",
			URIHash: report.Metadata.URIHash,
			Files:   report.Summary.Files,
		},
		Summary: SpectreHubSummary{
			Total:  report.Summary.Total,
			High:   report.Summary.High,
			Medium: report.Summary.Medium,
			Low:    report.Summary.Low,
			Info:   report.Summary.Info,
		},
	}

	for _, f := range report.Findings {
		var meta map[string]any
		if len(f.Detail) > 0 {
			meta = make(map[string]any, len(f.Detail))
			for k, v := range f.Detail {
				meta[k] = v
			}
		}
		envelope.Findings = append(envelope.Findings, SpectreHubFinding{
			ID:       string(f.Type),
			Severity: string(f.Severity),
			Location: location(f),
			Message:  f.Message,
			Metadata: meta,
		})
	}

	if envelope.Findings == nil {
		envelope.Findings = []SpectreHubFinding{}
	}

	return writeJSON(w, envelope)
}
