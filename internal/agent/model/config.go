package model

// DefaultMaxRetries bounds the generate-execute retry cycle.
const DefaultMaxRetries = 2

// ================ Config ================

// AgentConfig holds tunables for the query pipeline, sourced from env.
type AgentConfig struct {
	MaxRetries     int     `envconfig:"AGENT_MAX_RETRIES" default:"2"`
	TimeoutSeconds int     `envconfig:"AGENT_TIMEOUT_SECONDS" default:"30"`
	MaxResults     int     `envconfig:"AGENT_MAX_RESULTS" default:"100"`
	FuzzyThreshold float64 `envconfig:"AGENT_FUZZY_THRESHOLD" default:"0.6"`
	LogQueries     bool    `envconfig:"AGENT_LOG_QUERIES" default:"true"`
	HistoryTTL     string  `envconfig:"AGENT_HISTORY_TTL" default:"720h"`
	HistoryTurns   int     `envconfig:"AGENT_HISTORY_TURNS" default:"10"`
}

// ClassifierModelConfig configures the intent classification model. The
// translator shares it: both need deterministic, low temperature output.
type ClassifierModelConfig struct {
	Model       string  `envconfig:"CLASSIFIER_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"CLASSIFIER_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"CLASSIFIER_TEMPERATURE" default:"0.1"`
}

// FormatterModelConfig configures the response formatting model.
type FormatterModelConfig struct {
	Model       string  `envconfig:"FORMATTER_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"FORMATTER_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"FORMATTER_TEMPERATURE" default:"0.4"`
}

// PromptConfig customises the clinic identity baked into prompts.
type PromptConfig struct {
	ClinicName string `envconfig:"PROMPT_CLINIC_NAME" default:"PodoSkin"`
	ClinicType string `envconfig:"PROMPT_CLINIC_TYPE" default:"clínica podológica"`
}
