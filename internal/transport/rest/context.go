package rest

import (
	"context"

	"github.com/zenith-events/zenith/internal/domain"
)

type ctxKeyUserID struct{}
type ctxKeyRole struct{}
type ctxKeyEmail struct{}
type ctxKeyName struct{}

// AuthContext is the verified principal. UserID is the identity provider's
// subject, used unchanged as the user primary key.
type AuthContext struct {
	UserID string
	Role   domain.Role
	Email  string
	Name   string
}

func withAuth(ctx context.Context, a AuthContext) context.Context {
	ctx = context.WithValue(ctx, ctxKeyUserID{}, a.UserID)
	ctx = context.WithValue(ctx, ctxKeyRole{}, a.Role)
	ctx = context.WithValue(ctx, ctxKeyEmail{}, a.Email)
	ctx = context.WithValue(ctx, ctxKeyName{}, a.Name)
	return ctx
}

func GetAuth(ctx context.Context) (AuthContext, bool) {
	uid, ok := ctx.Value(ctxKeyUserID{}).(string)
	if !ok || uid == "" {
		return AuthContext{}, false
	}
	role, _ := ctx.Value(ctxKeyRole{}).(domain.Role)
	email, _ := ctx.Value(ctxKeyEmail{}).(string)
	name, _ := ctx.Value(ctxKeyName{}).(string)
	return AuthContext{UserID: uid, Role: role, Email: email, Name: name}, true
}
