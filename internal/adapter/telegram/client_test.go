package telegram

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flood-monitor-service/internal/domain"
)

const testToken = "123456:secret"

func jakarta(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	return loc
}

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c := NewClient(testToken, "-1001", 5*time.Second, jakarta(t), slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.baseURL = baseURL
	return c
}

func readingAlert() domain.AlertEvent {
	r := domain.Reading{ID: "abc-123", RightLevel: 160, LeftLevel: 140, RightFlow: 85.5, LeftFlow: 80}
	return domain.AlertEvent{
		Kind:      domain.AlertReading,
		ReadingID: r.ID,
		Reading:   &r,
		Verdict:   domain.FallbackVerdict(r, domain.DefaultThresholds()),
		Timestamp: time.Date(2024, 4, 26, 3, 0, 0, 0, time.UTC),
	}
}

func TestClient_Notify_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bot"+testToken+"/sendMessage", r.URL.Path)

		var req sendMessageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "-1001", req.ChatID)
		assert.Equal(t, "Markdown", req.ParseMode)
		assert.Contains(t, req.Text, "FLOOD ALERT")

		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7}}`))
	}))
	defer srv.Close()

	require.NoError(t, testClient(t, srv.URL).Notify(context.Background(), readingAlert()))
}

func TestClient_Notify_APIRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	err := testClient(t, srv.URL).Notify(context.Background(), readingAlert())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestClient_Notify_OKFalseWith200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false,"description":"Too Many Requests"}`))
	}))
	defer srv.Close()

	err := testClient(t, srv.URL).Notify(context.Background(), readingAlert())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Too Many Requests")
}

func TestClient_Notify_ErrorHidesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := testClient(t, url).Notify(context.Background(), readingAlert())
	require.Error(t, err)
	assert.NotContains(t, err.Error(), testToken)
}

func TestClient_Notify_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	c.httpClient.Timeout = 50 * time.Millisecond
	require.Error(t, c.Notify(context.Background(), readingAlert()))
}

func TestFormatMessage_Reading(t *testing.T) {
	msg := FormatMessage(readingAlert(), jakarta(t))

	assert.Contains(t, msg, "2024-04-26 10:00:00 WIB")
	assert.Contains(t, msg, "*Status:* FLOOD")
	assert.Contains(t, msg, "*Confidence:* 90%")
	assert.Contains(t, msg, "*Source:* FALLBACK")
	assert.Contains(t, msg, "abc-123")
	assert.Contains(t, msg, "Right level: 160 cm")
	assert.Contains(t, msg, "Right flow: 85.5 L/s")
	assert.Contains(t, msg, "Evacuate immediately")
}

func TestFormatMessage_Daily(t *testing.T) {
	date := domain.CivilDate{Year: 2024, Month: time.April, Day: 26}
	summary := domain.DailySummary{
		Date:          date,
		AvgRightLevel: 160,
		AvgLeftLevel:  100,
		SampleCount:   3,
		Status:        domain.StatusDanger,
		FloodFlag:     1,
	}
	stats := domain.DayStats{MaxRightLevel: 200, MaxLeftLevel: 110, FloodEvents: 2}
	event := domain.AlertEvent{
		Kind:      domain.AlertDaily,
		Summary:   &summary,
		Stats:     &stats,
		Verdict:   domain.DailyVerdict(summary, stats),
		Timestamp: time.Date(2024, 4, 26, 17, 5, 0, 0, time.UTC),
	}

	msg := FormatMessage(event, jakarta(t))

	assert.Contains(t, msg, "DAILY FLOOD REPORT")
	assert.Contains(t, msg, "*Date:* 2024-04-26")
	assert.Contains(t, msg, "*Status:* DANGER")
	assert.Contains(t, msg, "*Flood share:* 67%")
	assert.Contains(t, msg, "Max right level: 200.0 cm")
	assert.Contains(t, msg, "Flood events: 2x")
	assert.Contains(t, msg, "HIGH ALERT")
}

func TestFormatMessage_EscapesRemoteText(t *testing.T) {
	event := readingAlert()
	event.ReadingID = "id_`1`"
	event.Verdict.Status = domain.Status("HIGH_RISK")
	event.Verdict.Source = domain.VerdictSource("REMOTE*")
	event.Verdict.Recommendation = "Close gate_2 and *evacuate* [zone `A`]"

	msg := FormatMessage(event, jakarta(t))

	assert.Contains(t, msg, `*Status:* HIGH\_RISK`)
	assert.Contains(t, msg, `*Source:* REMOTE\*`)
	assert.Contains(t, msg, "*Reading:* id\\_\\`1\\`\n")
	assert.Contains(t, msg, "Close gate\\_2 and \\*evacuate\\* \\[zone \\`A\\`]")
}

func TestCodeSpan(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"abc-123", "`abc-123`"},
		{"abc_123", "`abc_123`"},
		{"a`b", "a\\`b"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, codeSpan(tt.in), tt.in)
	}
}
