package orchestratornode

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/tanpawarit/eazybank-support/agent/contract"
	statex "github.com/tanpawarit/eazybank-support/agent/state"
)

// LoadOrCreateConversation keeps the stored user id of an existing session;
// new sessions take the request's user id or defaultUserID.
func LoadOrCreateConversation(
	ctx context.Context,
	in *GraphState,
	store statex.Store,
	appName string,
	defaultUserID string,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	conv, err := store.Load(ctx, in.SessionID)
	switch {
	case err == nil:
	case errors.Is(err, statex.ErrStateNotFound):
		userID := in.UserID
		if userID == "" {
			userID = defaultUserID
		}
		conv = statex.NewConversation(in.SessionID, userID, appName, in.Now)
	default:
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	in.Conversation = conv
	in.UserID = conv.UserID
	return in, nil
}
