package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/pushpullleg/fitness-tracker/internal/dto"
	"github.com/pushpullleg/fitness-tracker/internal/utils"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type mockIngestService struct {
	result dto.CycleResult
	err    error
	ran    chan struct{}
}

func (m *mockIngestService) RunCycle(context.Context) (dto.CycleResult, error) {
	if m.ran != nil {
		defer close(m.ran)
	}
	return m.result, m.err
}

func newIngestTestApp(svc *mockIngestService) *fiber.App {
	app := fiber.New()
	NewIngestHandler(svc, time.Minute, testLogger()).Register(app.Group("/api"))
	return app
}

func TestRefreshReturnsCycleResult(t *testing.T) {
	svc := &mockIngestService{result: dto.CycleResult{
		CycleID:          "cycle-1",
		SourcesProcessed: 2,
		RecordsInserted:  5,
	}}
	app := newIngestTestApp(svc)

	for _, method := range []string{"GET", "POST"} {
		resp, err := app.Test(httptest.NewRequest(method, "/api/refresh", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body utils.APIResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.True(t, body.Success)

		data, ok := body.Data.(map[string]interface{})
		require.True(t, ok)
		require.Equal(t, "cycle-1", data["cycle_id"])
		require.Equal(t, float64(5), data["records_inserted"])
	}
}

func TestRefreshReportsFailure(t *testing.T) {
	svc := &mockIngestService{err: errors.New("pipeline unavailable")}
	app := newIngestTestApp(svc)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/refresh", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var body utils.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.False(t, body.Success)
}

func TestWebhookAcknowledgesBeforeProcessing(t *testing.T) {
	svc := &mockIngestService{ran: make(chan struct{})}
	app := newIngestTestApp(svc)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/webhook", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	select {
	case <-svc.ran:
	case <-time.After(time.Second):
		t.Fatal("background cycle never ran")
	}
}
