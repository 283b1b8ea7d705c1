package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RuntimePath is where pages look for the optional runtime config.
const RuntimePath = "/assets/config.json"

// Runtime is the optional page-side config document. Its absence is not an error;
// an empty key just disables metadata API lookups.
type Runtime struct {
	YTAPIKey string `json:"ytApiKey,omitempty"`
}

// ParseRuntime decodes a runtime config document.
func ParseRuntime(data []byte) (Runtime, error) {
	var r Runtime
	if err := json.Unmarshal(data, &r); err != nil {
		return Runtime{}, fmt.Errorf("runtime config: %w", err)
	}
	r.YTAPIKey = strings.TrimSpace(r.YTAPIKey)
	return r, nil
}
