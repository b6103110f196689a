package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bryanwahyu/field-report/internal/domain/report"
)

// The inference capability is never trusted for shape. Everything below turns
// loosely-typed JSON into typed records, substituting defaults per field.

type noteFields struct {
	Type       report.NoteType
	Severity   report.Severity
	Entities   report.Entities
	Tags       []string
	Confidence float64
}

// decodeNote fails only when raw is not a JSON object at all.
func decodeNote(raw string) (noteFields, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return noteFields{}, err
	}
	return noteFields{
		Type:       report.ParseNoteType(stringValue(obj["type"])),
		Severity:   report.ParseSeverity(stringValue(obj["severity"])),
		Entities:   entitiesValue(obj["entities"]),
		Tags:       stringList(obj["tags"]),
		Confidence: confidenceValue(obj["confidence"]),
	}, nil
}

func decodeWork(raw string) (report.WorkClassification, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return report.EmptyWorkClassification(), err
	}
	inProgress := obj["inProgress"]
	if inProgress == nil {
		inProgress = obj["in_progress"]
	}
	return report.WorkClassification{
		Completed:  stringList(obj["completed"]),
		InProgress: stringList(inProgress),
		Required:   stringList(obj["required"]),
	}, nil
}

var fencePattern = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

func decodeObject(raw string) (map[string]json.RawMessage, error) {
	text := strings.TrimSpace(raw)
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	if text == "" {
		return nil, fmt.Errorf("%w: empty payload", report.ErrValidation)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", report.ErrValidation, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: payload is not an object", report.ErrValidation)
	}
	return obj, nil
}

func stringValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// stringList keeps non-blank string members; any other shape yields an empty list.
func stringList(raw json.RawMessage) []string {
	out := []string{}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return out
	}
	for _, it := range items {
		s := strings.TrimSpace(stringValue(it))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func entitiesValue(raw json.RawMessage) report.Entities {
	e := report.EmptyEntities()
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return e
	}
	e.Equipment = uniqueStrings(stringList(obj["equipment"]))
	e.Locations = uniqueStrings(stringList(obj["locations"]))
	e.Personnel = uniqueStrings(stringList(obj["personnel"]))
	e.Measurements = measurementList(obj["measurements"])
	return e
}

// uniqueStrings keeps the first occurrence of each item.
func uniqueStrings(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, it := range items {
		if seen[it] {
			continue
		}
		seen[it] = true
		out = append(out, it)
	}
	return out
}

// isAbsent treats a missing field and an explicit null the same.
func isAbsent(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// measurementList drops entries without a numeric value.
func measurementList(raw json.RawMessage) []report.Measurement {
	out := []report.Measurement{}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return out
	}
	for _, it := range items {
		var m struct {
			Value     json.RawMessage `json:"value"`
			Unit      json.RawMessage `json:"unit"`
			Parameter json.RawMessage `json:"parameter"`
		}
		if err := json.Unmarshal(it, &m); err != nil {
			continue
		}
		v, ok := numberValue(m.Value)
		if !ok {
			continue
		}
		out = append(out, report.Measurement{
			Value:     v,
			Unit:      strings.TrimSpace(stringValue(m.Unit)),
			Parameter: strings.TrimSpace(stringValue(m.Parameter)),
		})
	}
	return out
}

func numberValue(raw json.RawMessage) (float64, bool) {
	if isAbsent(raw) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	if s := stringValue(raw); s != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func confidenceValue(raw json.RawMessage) float64 {
	var f float64
	if isAbsent(raw) || json.Unmarshal(raw, &f) != nil {
		return report.DefaultConfidence
	}
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

// numeric and dash markers need trailing space so "2.5 hour" and "-5 C" survive
var listMarker = regexp.MustCompile(`^\s*(?:[•*]+\s*|-+(?:\s+|$)|\d+[.)](?:\s+|$))`)

// parseLines splits line-oriented model output into items, stripping bullets and numbering.
func parseLines(text string, max int) []string {
	out := []string{}
	for _, line := range strings.Split(text, "\n") {
		item := strings.TrimSpace(listMarker.ReplaceAllString(line, ""))
		if item == "" {
			continue
		}
		out = append(out, item)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}
