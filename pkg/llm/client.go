package llm

import (
	"context"
	"fmt"
)

// Params are fixed per call site; nothing here comes from request input.
type Params struct {
	MaxTokens        int64
	Temperature      float64
	Stop             []string
	PresencePenalty  float64
	FrequencyPenalty float64
}

type Completion struct {
	Text             string
	FinishReason     string
	CompletionTokens int64
}

type Completer interface {
	Complete(ctx context.Context, prompt string, params Params) (*Completion, error)
	Model() string
}

const (
	StepTitle = "title"
	StepMeta  = "meta"
	StepBody  = "body"
	StepParse = "parse"
)

// StepError carries the calls and tokens spent before the chain stopped.
type StepError struct {
	Step string
	Err  error

	Calls            int
	CompletionTokens int64
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s step: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
