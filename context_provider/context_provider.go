package contextprovider

import "context"

// ContextProvider turns a user's stored turns into the conversation
// context embedded in the prompt.
type ContextProvider interface {
	Context(ctx context.Context, userId string) (string, error)
}
