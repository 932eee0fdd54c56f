package core

import (
	"context"
	"errors"

	"github.com/Liberty76220/LibertyTalk/internal/domain"
)

var ErrUserNotFound = errors.New("user not found")

// Directory is the user-profile collaborator: id to display data. Lookup
// may block; callers bound it with a context deadline and must not hold
// registry locks while waiting.
type Directory interface {
	Lookup(ctx context.Context, id domain.UserID) (domain.User, error)
}
