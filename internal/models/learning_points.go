package models

import (
	"bytes"
	"encoding/json"
)

// LearningPoints is the ordered "what you will learn" list. Upstream stores it either
// as a JSON array or as a JSON object whose values are the points.
type LearningPoints []string

// ParseLearningPoints normalises either stored shape into a list. Object values keep
// document order. Anything else yields an empty list.
func ParseLearningPoints(raw []byte) LearningPoints {
	raw = bytes.TrimSpace(raw)
	points := LearningPoints{}
	if len(raw) == 0 {
		return points
	}

	switch raw[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return points
		}
		for _, item := range items {
			points = append(points, pointText(item))
		}
	case '{':
		dec := json.NewDecoder(bytes.NewReader(raw))
		if _, err := dec.Token(); err != nil {
			return points
		}
		for dec.More() {
			if _, err := dec.Token(); err != nil {
				return points
			}
			var value json.RawMessage
			if err := dec.Decode(&value); err != nil {
				return points
			}
			points = append(points, pointText(value))
		}
	}
	return points
}

// UnmarshalJSON accepts both stored shapes and never fails.
func (p *LearningPoints) UnmarshalJSON(data []byte) error {
	*p = ParseLearningPoints(data)
	return nil
}

// pointText renders strings as-is and any other value as compact JSON.
func pointText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
