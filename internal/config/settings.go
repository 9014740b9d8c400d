package config

import (
	"encoding/json"
	"fmt"
)

// ParseSettings decodes a workspace/didChangeConfiguration settings value.
// Some clients wrap it as {"raven": {...}}; both shapes are accepted.
// It reports false when neither crossFile nor diagnostics is present.
func ParseSettings(raw json.RawMessage) (*Overrides, bool, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, false, nil
	}
	var wrapped struct {
		Raven *Overrides `json:"raven"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, false, fmt.Errorf("decode settings: %w", err)
	}
	o := wrapped.Raven
	if o == nil {
		o = new(Overrides)
		if err := json.Unmarshal(raw, o); err != nil {
			return nil, false, fmt.Errorf("decode settings: %w", err)
		}
	}
	if o.CrossFile == nil && o.Diagnostics == nil {
		return nil, false, nil
	}
	return o, true, nil
}
