package llm

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/SalvadorCordova96/ProJect-Medical/internal/agent/model"
	logx "github.com/SalvadorCordova96/ProJect-Medical/pkg/logger"
)

// basic safety limits to avoid pathological model outputs
const (
	maxContentLen = 64 * 1024 // 64KB
	maxSQLLen     = 8 * 1024  // 8KB per statement
	maxEntities   = 32
)

type rawClassification struct {
	Intent     string         `json:"intent"`
	Confidence float64        `json:"confidence"`
	Entities   map[string]any `json:"entities"`
}

type rawTranslation struct {
	Query      string         `json:"query"`
	Params     map[string]any `json:"params"`
	Tables     []string       `json:"tables"`
	IsMutation bool           `json:"is_mutation"`
}

// ParseClassification parses the classifier model output. Out-of-range
// confidences are clamped and unknown intent labels collapse to
// clarification; a malformed payload is an error, never a guess.
func ParseClassification(content string) (out *model.Classification, err error) {
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "classifier_parser").Msgf("panic recovered: %v", r)
			out = nil
			err = fmt.Errorf("classifier parser panic")
		}
	}()

	payload, err := extractJSONObject(content)
	if err != nil {
		return nil, fmt.Errorf("classifier output: %w", err)
	}

	var raw rawClassification
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("classifier output not valid json: %w", err)
	}

	confidence := raw.Confidence
	if math.IsNaN(confidence) || math.IsInf(confidence, 0) {
		confidence = 0
	}
	confidence = math.Min(math.Max(confidence, 0), 1)

	entities := raw.Entities
	if entities == nil {
		entities = map[string]any{}
	}
	if len(entities) > maxEntities {
		logx.Warn().Int("count", len(entities)).Msg("entity map capped")
		trimmed := make(map[string]any, maxEntities)
		n := 0
		for k, v := range entities {
			if n >= maxEntities {
				break
			}
			trimmed[k] = v
			n++
		}
		entities = trimmed
	}

	return &model.Classification{
		Intent:     model.ParseIntent(raw.Intent),
		Confidence: confidence,
		Entities:   entities,
	}, nil
}

// ParseTranslation parses the SQL translator output.
func ParseTranslation(content string) (out *model.SQLQuery, err error) {
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "translator_parser").Msgf("panic recovered: %v", r)
			out = nil
			err = fmt.Errorf("translator parser panic")
		}
	}()

	payload, err := extractJSONObject(content)
	if err != nil {
		return nil, fmt.Errorf("translator output: %w", err)
	}

	var raw rawTranslation
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("translator output not valid json: %w", err)
	}

	query := strings.TrimSpace(raw.Query)
	if query == "" {
		return nil, fmt.Errorf("translator returned empty statement")
	}
	if len(query) > maxSQLLen {
		return nil, fmt.Errorf("translator statement too large")
	}

	params := raw.Params
	if params == nil {
		params = map[string]any{}
	}

	return &model.SQLQuery{
		Query:      query,
		Params:     params,
		Tables:     raw.Tables,
		IsMutation: raw.IsMutation,
	}, nil
}

// extractJSONObject pulls the outermost JSON object out of a model response,
// tolerating markdown fences and prose around it.
func extractJSONObject(content string) (string, error) {
	if len(content) > maxContentLen {
		logx.Warn().Int("orig_len", len(content)).Int("max_len", maxContentLen).
			Msg("model output truncated due to size limit")
		content = content[:maxContentLen]
	}

	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("no json object found")
	}
	return content[start : end+1], nil
}
