package service

import (
	"context"
	"io"

	"notebook-widget-be/internal/pkg/logger"
	"notebook-widget-be/internal/session"
	"notebook-widget-be/pkg/citation"
	"notebook-widget-be/pkg/sse"
)

// ChatExecutor is the slice of the upstream client the chat service needs.
// Satisfied by *opennotebook.Client.
type ChatExecutor interface {
	ExecuteChat(ctx context.Context, sessionID, message string) (io.ReadCloser, error)
}

// IChatService defines the chat service interface
type IChatService interface {
	OpenStream(ctx context.Context, token, message string) (*Turn, string, error)
	Relay(turn *Turn, emit func(string) error) error
	ResetSession(ctx context.Context, token string) error
	ExtractCitations(text string) citation.Result
}

// Turn is one in-flight chat request: the upstream SSE body plus the
// re-emitter that will drive it. Not restartable; Relay consumes it.
type Turn struct {
	body      io.ReadCloser
	reemitter *sse.Reemitter
}

type chatService struct {
	store    *session.Store
	executor ChatExecutor
	mode     sse.AnswerMode
	log      logger.ILogger
	// Transcript of streamed answers, kept out of the main log.
	transcript logger.ILogger
}

func NewChatService(
	store *session.Store,
	executor ChatExecutor,
	mode sse.AnswerMode,
	log logger.ILogger,
	transcript logger.ILogger,
) IChatService {
	return &chatService{
		store:      store,
		executor:   executor,
		mode:       mode,
		log:        log,
		transcript: transcript,
	}
}

// OpenStream resolves the client's session (creating one for cold clients)
// and starts the upstream chat execution. It returns before any answer bytes
// are consumed, so the caller can still fail the request with a proper
// status and set the session cookie ahead of streaming. newToken is
// non-empty only when a session was minted.
func (cs *chatService) OpenStream(ctx context.Context, token, message string) (*Turn, string, error) {
	sess, newToken, err := cs.store.GetOrCreate(ctx, token)
	if err != nil {
		cs.log.Error("chat", "session get-or-create failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, "", err
	}

	body, err := cs.executor.ExecuteChat(ctx, sess.BackendSessionID, message)
	if err != nil {
		cs.log.Error("chat", "chat execution failed", map[string]interface{}{
			"backend_session_id": sess.BackendSessionID,
			"error":              err.Error(),
		})
		return nil, "", err
	}

	return &Turn{
		body:      body,
		reemitter: sse.NewReemitter(cs.mode),
	}, newToken, nil
}

// Relay pumps the turn's upstream stream through the re-emitter, calling
// emit with each new chunk of answer text. The upstream body is always
// closed, which also releases the connection when the consumer went away.
func (cs *chatService) Relay(turn *Turn, emit func(string) error) error {
	defer turn.body.Close()

	err := turn.reemitter.Reemit(turn.body, emit)

	details := map[string]interface{}{
		"answer_len":     len(turn.reemitter.Accumulated()),
		"skipped_frames": turn.reemitter.SkippedFrames(),
	}
	if err != nil {
		details["error"] = err.Error()
		cs.transcript.Warn("chat", "stream ended with error", details)
		return err
	}
	cs.transcript.Info("chat", "stream complete", details)
	return nil
}

// ResetSession drops the binding for token so the next message starts a
// fresh backend conversation.
func (cs *chatService) ResetSession(ctx context.Context, token string) error {
	return cs.store.Delete(ctx, token)
}

// ExtractCitations rewrites raw source references in text into numbered
// markers and returns the ordered reference list.
func (cs *chatService) ExtractCitations(text string) citation.Result {
	return citation.Extract(text)
}
