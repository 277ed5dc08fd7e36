package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atendeai/clinicbot/internal/transcript"
)

func TestHealthEndpoint(t *testing.T) {
	h := New(&Config{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestWebhookIsMounted(t *testing.T) {
	called := false
	h := New(&Config{
		Webhook: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusAccepted)
		}),
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook/whatsapp", nil))

	assert.True(t, called)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestWebhookAbsentReturnsNotFound(t *testing.T) {
	h := New(&Config{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook/whatsapp", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsIsMounted(t *testing.T) {
	h := New(&Config{
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("# metrics"))
		}),
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# metrics")
}

func TestTranscriptEndpoint(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "contact_id", "role", "body", "created_at"}).
		AddRow("id-1", "contact@c.us", "user", "oi", time.Date(2024, 3, 25, 23, 0, 0, 0, time.UTC))
	mock.ExpectQuery("SELECT id, contact_id, role, body, created_at").
		WithArgs("contact@c.us", 50).
		WillReturnRows(rows)

	h := New(&Config{Transcripts: transcript.NewStore(db)})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transcripts/contact@c.us", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		ContactID string             `json:"contact_id"`
		Entries   []transcript.Entry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "contact@c.us", resp.ContactID)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "oi", resp.Entries[0].Body)
}

func TestTranscriptEndpointRejectsBadLimit(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	h := New(&Config{Transcripts: transcript.NewStore(db)})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transcripts/contact?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
