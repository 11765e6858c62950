package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/flood-monitor-service/internal/domain"
)

const defaultBaseURL = "https://api.telegram.org"

// Client delivers alert events to a Telegram chat through the Bot API.
type Client struct {
	token      string
	chatID     string
	httpClient *http.Client
	baseURL    string
	loc        *time.Location
	logger     *slog.Logger
}

// NewClient creates a Telegram sink. Timestamps in messages are rendered in loc.
func NewClient(token, chatID string, timeout time.Duration, loc *time.Location, logger *slog.Logger) *Client {
	return &Client{
		token:  token,
		chatID: chatID,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: defaultBaseURL,
		loc:     loc,
		logger:  logger,
	}
}

// Name identifies the sink in logs and metrics.
func (c *Client) Name() string { return "telegram" }

// Notify formats the event as a Markdown message and posts it to the chat.
func (c *Client) Notify(ctx context.Context, event domain.AlertEvent) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:    c.chatID,
		Text:      FormatMessage(event, c.loc),
		ParseMode: "Markdown",
	})
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	u := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The URL carries the bot token; keep it out of the error text.
		return fmt.Errorf("telegram request failed: %w", redact(err, c.token))
	}
	defer resp.Body.Close()

	var out sendMessageResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&out); err != nil {
		return fmt.Errorf("telegram API error: status %d: decode response: %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !out.OK {
		return fmt.Errorf("telegram API error: status %d: %s", resp.StatusCode, out.Description)
	}

	c.logger.Debug("telegram alert delivered", "kind", event.Kind, "key", event.Key())
	return nil
}

// FormatMessage renders an alert event as Telegram Markdown.
func FormatMessage(event domain.AlertEvent, loc *time.Location) string {
	var b strings.Builder
	ts := event.Timestamp.In(loc).Format("2006-01-02 15:04:05 MST")
	v := event.Verdict

	switch event.Kind {
	case domain.AlertDaily:
		s := event.Summary
		b.WriteString("📊 *DAILY FLOOD REPORT*\n\n")
		fmt.Fprintf(&b, "*Date:* %s\n", s.Date)
		fmt.Fprintf(&b, "*Status:* %s\n", escapeMarkdown(string(v.Status)))
		fmt.Fprintf(&b, "*Flood share:* %.0f%%\n\n", v.Confidence)
		b.WriteString("📈 *Statistics:*\n")
		fmt.Fprintf(&b, "• Avg right level: %.1f cm\n", s.AvgRightLevel)
		fmt.Fprintf(&b, "• Avg left level: %.1f cm\n", s.AvgLeftLevel)
		if st := event.Stats; st != nil {
			fmt.Fprintf(&b, "• Max right level: %.1f cm\n", st.MaxRightLevel)
			fmt.Fprintf(&b, "• Max left level: %.1f cm\n", st.MaxLeftLevel)
			fmt.Fprintf(&b, "• Samples: %d\n", s.SampleCount)
			fmt.Fprintf(&b, "• Flood events: %dx\n", st.FloodEvents)
		} else {
			fmt.Fprintf(&b, "• Samples: %d\n", s.SampleCount)
		}
	default:
		b.WriteString("🚨 *FLOOD ALERT* 🚨\n\n")
		fmt.Fprintf(&b, "*Time:* %s\n", ts)
		fmt.Fprintf(&b, "*Status:* %s\n", escapeMarkdown(string(v.Status)))
		fmt.Fprintf(&b, "*Confidence:* %.0f%%\n", v.Confidence)
		fmt.Fprintf(&b, "*Source:* %s\n", escapeMarkdown(string(v.Source)))
		if event.ReadingID != "" {
			fmt.Fprintf(&b, "*Reading:* %s\n", codeSpan(event.ReadingID))
		}
		if r := event.Reading; r != nil {
			b.WriteString("\n📏 *Sensor data:*\n")
			fmt.Fprintf(&b, "• Right level: %g cm\n", r.RightLevel)
			fmt.Fprintf(&b, "• Left level: %g cm\n", r.LeftLevel)
			fmt.Fprintf(&b, "• Right flow: %g L/s\n", r.RightFlow)
			fmt.Fprintf(&b, "• Left flow: %g L/s\n", r.LeftFlow)
		}
	}

	if v.Recommendation != "" {
		fmt.Fprintf(&b, "\n⚠️ *Action:*\n%s\n", escapeMarkdown(v.Recommendation))
	}
	b.WriteString("\n_Automated flood monitoring_")
	return b.String()
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// escapeMarkdown escapes the characters legacy Telegram Markdown treats as
// entity delimiters, so remote text cannot break message parsing.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// codeSpan wraps s in backticks. Escapes are not honored inside a code span,
// so text containing a backtick is rendered as escaped plain text instead.
func codeSpan(s string) string {
	if strings.Contains(s, "`") {
		return escapeMarkdown(s)
	}
	return "`" + s + "`"
}

func redact(err error, token string) error {
	if token == "" {
		return err
	}
	return redactedError{msg: strings.ReplaceAll(err.Error(), token, "<redacted>"), err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e redactedError) Error() string { return e.msg }
func (e redactedError) Unwrap() error { return e.err }

// Bot API request and response types.

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}
