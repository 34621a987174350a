package authgate

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// CreateAccount registers a new user and signs the creating device in
// immediately. The password is hashed before it ever reaches the credential
// store; a duplicate email surfaces as [ErrEmailTaken].
func (e *Engine) CreateAccount(ctx context.Context, input CreateAccountInput) (*SignInResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	hash, err := e.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := e.now().UnixMilli()
	user := UserRecord{
		ID:           uuid.NewString(),
		Name:         input.Name,
		Email:        input.Email,
		PictureURI:   input.PictureURI,
		PasswordHash: hash,
		LastAccessAt: now,
		CreatedAt:    now,
	}

	if err := e.store.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, storeErr(err)
	}

	tok, err := e.issueSession(ctx, user.ID, input.DeviceName)
	if err != nil {
		return nil, err
	}
	return &SignInResult{Token: tok, User: &user}, nil
}

// Me fetches the record behind an authenticated identity.
func (e *Engine) Me(ctx context.Context, userID string) (*UserRecord, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	user, err := e.store.FindByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err)
	}
	return &user, nil
}
