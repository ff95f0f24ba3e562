package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"unicornfarm/internal/config"
	"unicornfarm/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandler_UnknownRoute(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)

	resp, raw := ts.do(t, http.MethodGet, "/api/stables", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, fiber.MIMEApplicationJSON, resp.Header.Get(fiber.HeaderContentType))

	body := decodeError(t, raw)
	assert.Equal(t, "An error occurred", body.Title)
	assert.Equal(t, "Cannot GET /api/stables", body.Detail)
	assert.Equal(t, "/errors/404", body.Type)
}

func TestErrorHandler_PanicBecomesInternalError(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)
	ts.app.Get("/api/explode", func(c *fiber.Ctx) error {
		panic("unicorn escaped")
	})

	resp, raw := ts.do(t, http.MethodGet, "/api/explode", "")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, models.ErrorResponse{
		Title:  "An error occurred",
		Detail: "Internal server error",
		Status: 500,
		Type:   "/errors/500",
	}, decodeError(t, raw))
}

func TestErrorHandler_Disabled(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, &config.Config{Env: "test", DisableErrorFormatting: true})
	rainbow := ts.seedUnicorn(t, "Rainbow", true)

	resp, raw := ts.do(t, http.MethodPost, fmt.Sprintf("/api/unicorns/%d/purchase", rainbow.ID),
		`{"email":"buyer@example.com"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Unicorn already purchased", string(raw))

	resp, raw = ts.do(t, http.MethodGet, "/api/stables", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Cannot GET /api/stables", string(raw))
}

func TestNewErrorHandler_UntypedErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		disabled   bool
		wantStatus int
		wantBody   string
	}{
		{"formatted hides cause", false, http.StatusInternalServerError, ""},
		{"disabled shows cause", true, http.StatusInternalServerError, "database is on fire"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			app := fiber.New(fiber.Config{ErrorHandler: NewErrorHandler(tt.disabled)})
			app.Get("/fail", func(c *fiber.Ctx) error {
				return fmt.Errorf("database is on fire")
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/fail", nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			raw, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.disabled {
				assert.Equal(t, tt.wantBody, string(raw))
				return
			}
			assert.Equal(t, "Internal server error", decodeError(t, raw).Detail)
			assert.NotContains(t, string(raw), "on fire")
		})
	}
}

func TestHealthChecks(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)

	resp, _ := ts.do(t, http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw := ts.do(t, http.MethodGet, "/health/ready", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "healthy", body.Checks["database"])
	assert.Equal(t, "unavailable", body.Checks["redis"])
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)

	resp, _ := ts.do(t, http.MethodGet, "/api/unicorns", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
	assert.Equal(t, "nosniff", resp.Header.Get(fiber.HeaderXContentTypeOptions))
}
