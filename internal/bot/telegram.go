package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Telegram is a minimal Bot API client covering what the dispatcher
// needs: long polling, sending replies and answering callback queries.
// Outbound sends are paced by a rate limiter to stay under the Bot API's
// flood limits.
type Telegram struct {
	token   string
	baseURL string
	httpc   *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewTelegram creates a Telegram client. sendRate caps sendMessage calls
// per second.
func NewTelegram(token string, sendRate int, logger zerolog.Logger) *Telegram {
	return &Telegram{
		token:   token,
		baseURL: "https://api.telegram.org",
		// No global client timeout: long polls legitimately hang for the
		// poll timeout. Each call carries a context deadline instead.
		httpc:   &http.Client{},
		limiter: rate.NewLimiter(rate.Limit(sendRate), sendRate),
		logger:  logger.With().Str("component", "telegram").Logger(),
	}
}

// apiResponse is the Bot API's envelope.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
	ErrorCode   int             `json:"error_code"`
}

// call POSTs params to the given Bot API method and decodes the result.
func (t *Telegram) call(ctx context.Context, method string, params any, result any) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encoding %s params: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", t.baseURL, t.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("reading %s response: %w", method, err)
	}

	var envelope apiResponse
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("decoding %s response: %w", method, err)
	}
	if !envelope.OK {
		return fmt.Errorf("%s failed: %s (code %d)", method, envelope.Description, envelope.ErrorCode)
	}
	if result != nil {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("decoding %s result: %w", method, err)
		}
	}
	return nil
}

// GetMe fetches the bot's own account, confirming the token works.
func (t *Telegram) GetMe(ctx context.Context) (*User, error) {
	var me User
	if err := t.call(ctx, "getMe", struct{}{}, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// GetUpdates long-polls for new updates past offset. timeout is the
// server-side hold in seconds.
func (t *Telegram) GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error) {
	params := struct {
		Offset         int64    `json:"offset"`
		Timeout        int      `json:"timeout"`
		AllowedUpdates []string `json:"allowed_updates"`
	}{
		Offset:         offset,
		Timeout:        timeout,
		AllowedUpdates: []string{"message", "callback_query"},
	}

	// Give the HTTP round trip headroom beyond the server-side hold.
	cctx, cancel := context.WithTimeout(ctx, time.Duration(timeout+10)*time.Second)
	defer cancel()

	var updates []Update
	if err := t.call(cctx, "getUpdates", params, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendMessage delivers msg to its chat, waiting on the rate limiter first.
func (t *Telegram) SendMessage(ctx context.Context, msg Outgoing) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	params := struct {
		ChatID      int64                 `json:"chat_id"`
		Text        string                `json:"text"`
		ParseMode   string                `json:"parse_mode,omitempty"`
		ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
	}{
		ChatID:      msg.ChatID,
		Text:        msg.Text,
		ParseMode:   msg.ParseMode,
		ReplyMarkup: msg.Keyboard,
	}
	return t.call(ctx, "sendMessage", params, nil)
}

// EditMessageText rewrites a previously sent message in place. Menu
// navigation edits the menu message instead of stacking new ones.
func (t *Telegram) EditMessageText(ctx context.Context, chatID, messageID int64, text string, keyboard *InlineKeyboardMarkup) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	params := struct {
		ChatID      int64                 `json:"chat_id"`
		MessageID   int64                 `json:"message_id"`
		Text        string                `json:"text"`
		ParseMode   string                `json:"parse_mode"`
		ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
	}{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ParseMode:   "HTML",
		ReplyMarkup: keyboard,
	}
	return t.call(ctx, "editMessageText", params, nil)
}

// AnswerCallbackQuery acknowledges a button press so the client stops
// showing a progress indicator.
func (t *Telegram) AnswerCallbackQuery(ctx context.Context, id string) error {
	params := struct {
		CallbackQueryID string `json:"callback_query_id"`
	}{CallbackQueryID: id}
	return t.call(ctx, "answerCallbackQuery", params, nil)
}
