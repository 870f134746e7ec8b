package handler

// ErrorBody is the JSON envelope of every failed request. The cascade fields
// are set only when a delete stopped half way.
type ErrorBody struct {
	Error          string   `json:"error"`
	Field          string   `json:"field,omitempty"`
	Partial        bool     `json:"partial,omitempty"`
	FailedStep     string   `json:"failedStep,omitempty"`
	CompletedSteps []string `json:"completedSteps,omitempty"`
}
