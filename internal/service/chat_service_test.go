package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notebook-widget-be/internal/session"
	"notebook-widget-be/pkg/apperror"
	"notebook-widget-be/pkg/sse"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

type fakeCreator struct{ calls int }

func (f *fakeCreator) CreateSession(context.Context, string) (string, error) {
	f.calls++
	return "session:backend", nil
}

type fakeExecutor struct {
	stream     string
	err        error
	gotSession string
	gotMessage string
}

func (f *fakeExecutor) ExecuteChat(_ context.Context, sessionID, message string) (io.ReadCloser, error) {
	f.gotSession = sessionID
	f.gotMessage = message
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.stream)), nil
}

func newTestService(executor *fakeExecutor) (IChatService, *fakeCreator) {
	creator := &fakeCreator{}
	repo := session.NewMemoryRepository(time.Hour)
	store := session.NewStore(repo, creator, "Widget Chat", nopLogger{})
	return NewChatService(store, executor, sse.AnswerCumulative, nopLogger{}, nopLogger{}), creator
}

func TestOpenStreamAndRelay(t *testing.T) {
	executor := &fakeExecutor{stream: `data: {"type": "answer", "content": "Hello"}
data: {"type": "answer", "content": "Hello, world."}
data: {"type": "complete"}
`}
	svc, creator := newTestService(executor)

	turn, newToken, err := svc.OpenStream(context.Background(), "", "hi there")
	require.NoError(t, err)
	assert.NotEmpty(t, newToken)
	assert.Equal(t, 1, creator.calls)
	assert.Equal(t, "session:backend", executor.gotSession)
	assert.Equal(t, "hi there", executor.gotMessage)

	var out strings.Builder
	require.NoError(t, svc.Relay(turn, func(chunk string) error {
		out.WriteString(chunk)
		return nil
	}))
	assert.Equal(t, "Hello, world.", out.String())
}

func TestOpenStreamWarmClientKeepsToken(t *testing.T) {
	executor := &fakeExecutor{stream: `data: {"type": "complete"}` + "\n"}
	svc, creator := newTestService(executor)

	_, token, err := svc.OpenStream(context.Background(), "", "first")
	require.NoError(t, err)

	_, newToken, err := svc.OpenStream(context.Background(), token, "second")
	require.NoError(t, err)
	assert.Empty(t, newToken)
	assert.Equal(t, 1, creator.calls)
}

func TestOpenStreamExecutorFailure(t *testing.T) {
	executor := &fakeExecutor{err: apperror.NewUpstream(503, "backend busy")}
	svc, _ := newTestService(executor)

	_, _, err := svc.OpenStream(context.Background(), "", "hi")

	require.Error(t, err)
	assert.True(t, apperror.IsUpstream(err))
}

func TestRelayPropagatesStreamError(t *testing.T) {
	executor := &fakeExecutor{stream: `data: {"type": "error", "message": "model crashed"}` + "\n"}
	svc, _ := newTestService(executor)

	turn, _, err := svc.OpenStream(context.Background(), "", "hi")
	require.NoError(t, err)

	err = svc.Relay(turn, func(string) error { return nil })
	require.Error(t, err)
	assert.True(t, apperror.IsUpstream(err))
}

func TestRelayStopsOnEmitError(t *testing.T) {
	executor := &fakeExecutor{stream: `data: {"type": "answer", "content": "a"}
data: {"type": "answer", "content": "ab"}
data: {"type": "complete"}
`}
	svc, _ := newTestService(executor)

	turn, _, err := svc.OpenStream(context.Background(), "", "hi")
	require.NoError(t, err)

	wantErr := errors.New("consumer gone")
	err = svc.Relay(turn, func(string) error { return wantErr })
	require.ErrorIs(t, err, wantErr)
}

func TestExtractCitations(t *testing.T) {
	svc, _ := newTestService(&fakeExecutor{})

	result := svc.ExtractCitations("See [source:doc1] and source_insight:ins7 and again source:doc1.")

	assert.Equal(t, "See [1](#ref-source-doc1) and [2](#ref-source_insight-ins7) and again [1](#ref-source-doc1).", result.Text)
	require.Len(t, result.References, 2)
	assert.Equal(t, 1, result.References[0].Number)
	assert.Equal(t, 2, result.References[1].Number)
}

func TestResetSessionForcesNewBackendSession(t *testing.T) {
	executor := &fakeExecutor{stream: `data: {"type": "complete"}` + "\n"}
	svc, creator := newTestService(executor)

	_, token, err := svc.OpenStream(context.Background(), "", "first")
	require.NoError(t, err)

	require.NoError(t, svc.ResetSession(context.Background(), token))

	_, newToken, err := svc.OpenStream(context.Background(), token, "second")
	require.NoError(t, err)
	assert.NotEmpty(t, newToken)
	assert.Equal(t, 2, creator.calls)
}
