package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	idgen "github.com/riskibarqy/creator-league/internal/platform/id"
	"github.com/riskibarqy/creator-league/internal/platform/logging"
)

const defaultSessionTTL = 12 * time.Hour

type sessionEntry struct {
	session   *Session
	userID    string
	expiresAt time.Time
}

// SessionManager maps bearer tokens to live sessions. Expiry slides on use.
type SessionManager struct {
	contests *ContestService
	feedback *FeedbackService
	tokens   idgen.Generator
	ttl      time.Duration
	logger   *logging.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

func NewSessionManager(
	contests *ContestService,
	feedback *FeedbackService,
	tokens idgen.Generator,
	ttl time.Duration,
	logger *logging.Logger,
) *SessionManager {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}

	return &SessionManager{
		contests: contests,
		feedback: feedback,
		tokens:   tokens,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*sessionEntry),
	}
}

// Login opens a new session and returns its token.
func (m *SessionManager) Login(ctx context.Context, username, plain string) (string, State, error) {
	session := NewSession(m.contests, m.feedback, m.logger)
	state, err := session.Login(ctx, username, plain)
	if err != nil {
		return "", State{}, err
	}

	token, err := m.tokens.NewID()
	if err != nil {
		return "", State{}, fmt.Errorf("generate session token: %w", err)
	}

	m.mu.Lock()
	m.sweepLocked()
	m.sessions[token] = &sessionEntry{
		session:   session,
		userID:    state.CurrentUser.ID,
		expiresAt: m.now().Add(m.ttl),
	}
	m.mu.Unlock()

	return token, state, nil
}

// Lookup resolves a token to its session.
func (m *SessionManager) Lookup(_ context.Context, token string) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: missing session token", ErrUnauthorized)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[token]
	if !ok {
		return nil, fmt.Errorf("%w: unknown session", ErrUnauthorized)
	}
	now := m.now()
	if !entry.expiresAt.After(now) {
		delete(m.sessions, token)
		return nil, fmt.Errorf("%w: session expired", ErrUnauthorized)
	}
	entry.expiresAt = now.Add(m.ttl)
	return entry.session, nil
}

// Logout ends the session behind token.
func (m *SessionManager) Logout(ctx context.Context, token string) {
	m.mu.Lock()
	entry, ok := m.sessions[token]
	delete(m.sessions, token)
	m.mu.Unlock()

	if ok {
		entry.session.Logout(ctx)
	}
}

// ContestChanged drops sessions whose user no longer exists.
func (m *SessionManager) ContestChanged(ctx context.Context) {
	m.mu.Lock()
	entries := make(map[string]string, len(m.sessions))
	for token, entry := range m.sessions {
		entries[token] = entry.userID
	}
	m.mu.Unlock()

	for token, userID := range entries {
		if _, err := m.contests.GetUser(ctx, userID); !errors.Is(err, ErrNotFound) {
			continue
		}
		m.mu.Lock()
		delete(m.sessions, token)
		m.mu.Unlock()
		m.logger.InfoContext(ctx, "session revoked", "user_id", userID)
	}
}

func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *SessionManager) sweepLocked() {
	now := m.now()
	for token, entry := range m.sessions {
		if !entry.expiresAt.After(now) {
			delete(m.sessions, token)
		}
	}
}
