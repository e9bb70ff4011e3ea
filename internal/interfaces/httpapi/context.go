package httpapi

import (
	"context"

	"github.com/riskibarqy/creator-league/internal/usecase"
)

type contextKey string

const (
	sessionContextKey contextKey = "session"
	tokenContextKey   contextKey = "session_token"
)

func withSession(ctx context.Context, token string, s *usecase.Session) context.Context {
	ctx = context.WithValue(ctx, tokenContextKey, token)
	return context.WithValue(ctx, sessionContextKey, s)
}

func sessionFromContext(ctx context.Context) (*usecase.Session, bool) {
	s, ok := ctx.Value(sessionContextKey).(*usecase.Session)
	return s, ok && s != nil
}

func tokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}
