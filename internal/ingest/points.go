package ingest

import (
	"encoding/json"
	"fmt"
	"strings"
)

// categoryPoints maps recognized rubbish categories to the points they earn.
// Unknown categories earn nothing and are dropped.
var categoryPoints = map[string]int64{
	"plastic": 10,
	"metal":   25,
	"paper":   5,
	"glass":   15,
}

// disposalPayload is the wire format published by the bin sensor.
type disposalPayload struct {
	RubbishType string `json:"rubbish_type"`
	ThrowTime   string `json:"throw_time"`
}

// parseDisposal decodes a sensor payload and resolves its point value.
func parseDisposal(payload []byte) (category string, points int64, err error) {
	var msg disposalPayload
	if err := json.Unmarshal(payload, &msg); err != nil {
		return "", 0, fmt.Errorf("decode disposal payload: %w", err)
	}

	category = strings.ToLower(strings.TrimSpace(msg.RubbishType))
	if category == "" {
		return "", 0, fmt.Errorf("payload has no rubbish_type")
	}

	points, ok := categoryPoints[category]
	if !ok {
		return category, 0, fmt.Errorf("unknown rubbish type %q", category)
	}

	return category, points, nil
}
