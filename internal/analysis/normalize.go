package analysis

import "encoding/json"

// PlaceholderImageURL is rendered when the inference response carries no
// usable image reference.
const PlaceholderImageURL = "/images/placeholder.png"

// Normalize converts a raw inference response into the canonical Result.
// It is total: any input, including nil, invalid JSON, or a payload of the
// wrong shape, produces a fully populated value. Nothing downstream of this
// function needs to guard against missing fields.
func Normalize(raw json.RawMessage) Result {
	var top map[string]any
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &top)
	}

	out := Result{
		ImageURL:          PlaceholderImageURL,
		Findings:          []Finding{},
		PredictedProblems: []string{},
		Recommendations:   "",
	}

	if s, ok := top["imageUrl"].(string); ok && s != "" {
		out.ImageURL = s
	}

	if items, ok := top["results"].([]any); ok {
		out.Findings = make([]Finding, 0, len(items))
		for _, item := range items {
			if obj, ok := item.(map[string]any); ok {
				out.Findings = append(out.Findings, Finding(obj))
			} else {
				// Keep the slot so predictedProblems stays one-per-finding.
				out.Findings = append(out.Findings, Finding{})
			}
		}
	}

	out.PredictedProblems = make([]string, 0, len(out.Findings))
	for _, f := range out.Findings {
		out.PredictedProblems = append(out.PredictedProblems, f.Problem())
	}

	if s, ok := top["recommendations"].(string); ok {
		out.Recommendations = s
	}

	return out
}
