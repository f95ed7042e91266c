package providers

import (
	"context"
	"encoding/json"
	"errors"
)

// Reasoning engine failure taxonomy. Stages classify failures with these
// sentinels; neither the provider nor the stage retries.
var (
	// ErrReasoningTransport means the engine was unreachable, timed out or
	// returned a non-2xx status.
	ErrReasoningTransport = errors.New("reasoning engine transport failure")

	// ErrReasoningMalformed means the engine answered but the body could not
	// be reduced to a JSON object.
	ErrReasoningMalformed = errors.New("reasoning engine returned malformed response")
)

// CompletionRequest is one structured prompt for the reasoning engine.
// Images are raw encoded image bytes attached to the user turn.
type CompletionRequest struct {
	System string
	User   string
	Images [][]byte
}

// ReasoningProvider wraps an external text/vision completion service behind
// a submit-prompt, receive-JSON contract. Implementations guarantee the
// returned message is a syntactically valid JSON value or an error wrapping
// one of the sentinels above.
type ReasoningProvider interface {
	Complete(ctx context.Context, req CompletionRequest) (json.RawMessage, error)
}
