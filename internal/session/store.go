package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"notebook-widget-be/internal/pkg/logger"
)

// SessionCreator is the slice of the upstream client the store needs.
// Satisfied by *opennotebook.Client.
type SessionCreator interface {
	CreateSession(ctx context.Context, title string) (string, error)
}

// Store maps cookie-carried tokens to backend conversation sessions.
// Warm clients reuse their binding; cold clients trigger exactly one backend
// session-creation call.
type Store struct {
	repo     Repository
	upstream SessionCreator
	title    string
	log      logger.ILogger
}

func NewStore(repo Repository, upstream SessionCreator, title string, log logger.ILogger) *Store {
	return &Store{
		repo:     repo,
		upstream: upstream,
		title:    title,
		log:      log,
	}
}

// GetOrCreate returns the live session for token if it resolves, otherwise
// creates a backend session, mints a fresh opaque token and binds the two.
// newToken is non-empty only when a session was created; the caller persists
// it as a cookie for the configured lifetime.
func (s *Store) GetOrCreate(ctx context.Context, token string) (sess *Session, newToken string, err error) {
	if token != "" {
		if existing, found := s.repo.Get(ctx, token); found {
			return existing, "", nil
		}
	}

	backendID, err := s.upstream.CreateSession(ctx, s.title)
	if err != nil {
		return nil, "", err
	}

	sess = &Session{
		Token:            uuid.NewString(),
		BackendSessionID: backendID,
		CreatedAt:        time.Now(),
	}
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, "", err
	}

	s.log.Info("session", "created backend session", map[string]interface{}{
		"backend_session_id": backendID,
	})

	return sess, sess.Token, nil
}

// Delete drops the binding for token. Used by chat reset.
func (s *Store) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.repo.Delete(ctx, token)
}
