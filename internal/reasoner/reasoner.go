// Package reasoner is the boundary to the external reasoning service.
package reasoner

import "context"

// Message roles in an inference context window.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry in the bounded context passed to the service.
type Message struct {
	Role    string
	Content string
}

// Reasoner produces free-form text from a system instruction and a
// bounded conversation context. Implementations must honor the context
// deadline and return an error rather than block; callers always have a
// deterministic fallback and never surface these errors to the user.
type Reasoner interface {
	Infer(ctx context.Context, system string, messages []Message) (string, error)
}
