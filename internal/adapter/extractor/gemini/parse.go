package gemini

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/mtm-trainworks/listing-engine/internal/listing/domain"
)

// The model is asked for bare JSON but often wraps it in a fenced code block
// anyway.
var codeFence = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// ParseAnalysis extracts the structured field bag from the model's raw text,
// stripping a markdown code fence when present and normalizing the result.
func ParseAnalysis(raw string) (*domain.AIAnalysis, error) {
	jsonStr := strings.TrimSpace(raw)
	if matches := codeFence.FindStringSubmatch(jsonStr); matches != nil {
		jsonStr = matches[1]
	}

	analysis := &domain.AIAnalysis{}
	if err := json.Unmarshal([]byte(jsonStr), analysis); err != nil {
		return nil, fmt.Errorf("could not parse structured response: %w", err)
	}
	analysis.Normalize()
	return analysis, nil
}
