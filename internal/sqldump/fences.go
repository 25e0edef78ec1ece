package sqldump

import "strings"

// StripFences removes markdown code fence lines (``` or ```sql) so that
// model output wrapped in a code block can be extracted directly.
func StripFences(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
