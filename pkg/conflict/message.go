package conflict

import "strings"

// maxReasonLength is the longest reason ParseMessage returns before moving
// the overflow into the details.
const maxReasonLength = 200

const detailsMarker = "Details:"

// Format renders the report as "Summary\n\nDetails:\n..." for presentation
// surfaces that only carry a single message.
func (r *Report) Format() string {
	if r.Details == "" {
		return r.Summary
	}
	return r.Summary + "\n\n" + detailsMarker + "\n" + r.Details
}

// ParseMessage splits a formatted conflict message back into its reason and
// details. Reasons longer than 200 characters are cut with "..." and the
// remainder is prepended to the details.
func ParseMessage(msg string) (reason, details string) {
	lines := strings.Split(msg, "\n")

	var head, tail []string
	found := false
	for _, line := range lines {
		if !found && strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), strings.ToLower(detailsMarker)) {
			found = true
			continue
		}
		if found {
			tail = append(tail, line)
		} else {
			head = append(head, line)
		}
	}

	reason = joinNonBlank(head)
	details = joinNonBlank(tail)
	if reason == "" && details == "" {
		return "Unknown conflict", ""
	}

	if runes := []rune(reason); len(runes) > maxReasonLength {
		rest := string(runes[maxReasonLength:])
		reason = string(runes[:maxReasonLength]) + "..."
		details = strings.TrimRight(rest+"\n"+details, "\n")
	}
	return reason, details
}

func joinNonBlank(lines []string) string {
	var kept []string
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
