package analysis

import (
	"encoding/json"
	"testing"
)

func TestNormalizeFullPayload(t *testing.T) {
	raw := json.RawMessage(`{
		"imageUrl": "/uploads/face.png",
		"results": [
			{"x1": 10, "y1": 20, "x2": 30, "y2": 40, "confidence": 0.91, "class": 2, "problem": "acne"},
			{"problem": "wrinkles"}
		],
		"recommendations": "Use sunscreen daily."
	}`)

	out := Normalize(raw)

	if out.ImageURL != "/uploads/face.png" {
		t.Fatalf("expected imageUrl /uploads/face.png, got %q", out.ImageURL)
	}
	if len(out.Findings) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(out.Findings))
	}
	if got := out.Findings[0]["confidence"]; got != 0.91 {
		t.Fatalf("expected confidence 0.91 to pass through, got %v", got)
	}
	if len(out.PredictedProblems) != 2 {
		t.Fatalf("expected 2 predicted problems, got %d", len(out.PredictedProblems))
	}
	if out.PredictedProblems[0] != "acne" || out.PredictedProblems[1] != "wrinkles" {
		t.Fatalf("unexpected predicted problems: %v", out.PredictedProblems)
	}
	if out.Recommendations != "Use sunscreen daily." {
		t.Fatalf("unexpected recommendations: %q", out.Recommendations)
	}
}

func TestNormalizeNilAndInvalidInput(t *testing.T) {
	for name, raw := range map[string]json.RawMessage{
		"nil":          nil,
		"empty":        json.RawMessage(``),
		"invalid json": json.RawMessage(`{not json`),
		"wrong type":   json.RawMessage(`"a string"`),
		"null":         json.RawMessage(`null`),
	} {
		out := Normalize(raw)
		if out.ImageURL != PlaceholderImageURL {
			t.Fatalf("%s: expected placeholder image, got %q", name, out.ImageURL)
		}
		if out.Findings == nil || len(out.Findings) != 0 {
			t.Fatalf("%s: expected empty findings slice, got %v", name, out.Findings)
		}
		if out.PredictedProblems == nil || len(out.PredictedProblems) != 0 {
			t.Fatalf("%s: expected empty predicted problems, got %v", name, out.PredictedProblems)
		}
		if out.Recommendations != "" {
			t.Fatalf("%s: expected empty recommendations, got %q", name, out.Recommendations)
		}
	}
}

func TestNormalizeResultsNotArray(t *testing.T) {
	out := Normalize(json.RawMessage(`{"results": {"problem": "acne"}}`))
	if len(out.Findings) != 0 {
		t.Fatalf("expected no findings for non-array results, got %d", len(out.Findings))
	}
	if len(out.PredictedProblems) != 0 {
		t.Fatalf("expected no predicted problems, got %v", out.PredictedProblems)
	}
}

func TestNormalizeNonObjectEntriesKeepSlots(t *testing.T) {
	out := Normalize(json.RawMessage(`{"results": [{"problem": "acne"}, 42, "junk", {"confidence": 0.5}]}`))
	if len(out.Findings) != 4 {
		t.Fatalf("expected 4 findings, got %d", len(out.Findings))
	}
	want := []string{"acne", UnknownProblem, UnknownProblem, UnknownProblem}
	for i, problem := range want {
		if out.PredictedProblems[i] != problem {
			t.Fatalf("predicted problem %d: expected %q, got %q", i, problem, out.PredictedProblems[i])
		}
	}
}

func TestNormalizeMissingProblemLabel(t *testing.T) {
	out := Normalize(json.RawMessage(`{"results": [{"problem": ""}, {"problem": 7}, {}]}`))
	for i, problem := range out.PredictedProblems {
		if problem != UnknownProblem {
			t.Fatalf("predicted problem %d: expected %q, got %q", i, UnknownProblem, problem)
		}
	}
}

func TestNormalizeNonStringFields(t *testing.T) {
	out := Normalize(json.RawMessage(`{"imageUrl": 5, "recommendations": ["a", "b"]}`))
	if out.ImageURL != PlaceholderImageURL {
		t.Fatalf("expected placeholder for non-string imageUrl, got %q", out.ImageURL)
	}
	if out.Recommendations != "" {
		t.Fatalf("expected empty recommendations for non-string value, got %q", out.Recommendations)
	}
}

func TestNormalizedResultSerializesFully(t *testing.T) {
	payload, err := json.Marshal(Normalize(nil))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"imageUrl", "results", "predictedProblems", "recommendations"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("expected key %q in serialized result", key)
		}
	}
	if decoded["results"] == nil {
		t.Fatalf("expected results to serialize as [], got null")
	}
}
