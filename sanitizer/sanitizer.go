// Package sanitizer cleans raw model output before it is shown to a user.
// It drops lines that look like leaked internal reasoning and makes sure a
// medical disclaimer is always present. The line filter is best-effort
// substring matching, not a guaranteed stripper.
package sanitizer

import "strings"

const Disclaimer = "**Disclaimer:** I am not a medical professional. Please consult a qualified clinician."

var markers = []string{
	"thought",
	"reasoning",
	"step",
	"hmm",
	"i need to",
	"let me think",
	"based on the",
	"first,",
}

func Sanitize(raw string) string {
	trimmed := strings.TrimSpace(raw)

	var kept []string
	for _, line := range strings.Split(trimmed, "\n") {
		if containsMarker(line) {
			continue
		}
		kept = append(kept, strings.TrimSpace(line))
	}

	result := strings.TrimSpace(strings.Join(kept, "\n"))
	if len(result) == 0 {
		result = trimmed
	}

	if containsDisclaimer(result) {
		return result
	}

	if len(result) == 0 {
		return Disclaimer
	}

	return result + "\n\n" + Disclaimer
}

func containsMarker(line string) bool {
	lower := strings.ToLower(line)
	for _, marker := range markers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func containsDisclaimer(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, "not a doctor") || strings.Contains(lower, "not a medical professional")
}
