package controller

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notebook-widget-be/internal/pkg/serverutils"
	"notebook-widget-be/pkg/apperror"
)

type stubFetcher struct {
	sourceBody  []byte
	insightBody []byte
	err         error
	gotID       string
}

func (s *stubFetcher) GetSource(_ context.Context, id string) ([]byte, error) {
	s.gotID = id
	if s.err != nil {
		return nil, s.err
	}
	return s.sourceBody, nil
}

func (s *stubFetcher) GetInsight(_ context.Context, id string) ([]byte, error) {
	s.gotID = id
	if s.err != nil {
		return nil, s.err
	}
	return s.insightBody, nil
}

func newReferenceApp(fetcher MetadataFetcher) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	NewReferenceController(fetcher).RegisterRoutes(app.Group("/api"))
	return app
}

func TestGetSourceForwardsBody(t *testing.T) {
	fetcher := &stubFetcher{sourceBody: []byte(`{"id": "source:abc", "title": "Doc"}`)}
	app := newReferenceApp(fetcher)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/sources/abc_chunk_2", nil), -1)
	require.NoError(t, err)

	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
	assert.Equal(t, "abc_chunk_2", fetcher.gotID)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": "source:abc", "title": "Doc"}`, string(body))
}

func TestGetInsightForwardsBody(t *testing.T) {
	fetcher := &stubFetcher{insightBody: []byte(`{"id": "source_insight:ins7", "content": "text"}`)}
	app := newReferenceApp(fetcher)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/insights/ins7", nil), -1)
	require.NoError(t, err)

	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "ins7", fetcher.gotID)
}

func TestGetSourceNotFound(t *testing.T) {
	fetcher := &stubFetcher{err: apperror.NewNotFound("source", "source:missing")}
	app := newReferenceApp(fetcher)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/sources/missing", nil), -1)
	require.NoError(t, err)

	assert.Equal(t, 404, resp.StatusCode)
}

func TestGetSourceUpstreamFailure(t *testing.T) {
	fetcher := &stubFetcher{err: apperror.NewUpstream(500, "backend detail")}
	app := newReferenceApp(fetcher)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/sources/abc", nil), -1)
	require.NoError(t, err)

	assert.Equal(t, 502, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "backend detail")
}
