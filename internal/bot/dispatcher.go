package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/knamoah/kasabot/internal/knowledge"
	"github.com/knamoah/kasabot/internal/llm"
	"github.com/knamoah/kasabot/internal/prompt"
)

// API is the Telegram surface the dispatcher needs.
type API interface {
	GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error)
	SendMessage(ctx context.Context, msg Outgoing) error
	EditMessageText(ctx context.Context, chatID, messageID int64, text string, keyboard *InlineKeyboardMarkup) error
	AnswerCallbackQuery(ctx context.Context, id string) error
}

// Completer produces model completions.
type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)
}

// Options holds the dispatcher's tunables.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
	// FallbackReply is sent when handling fails; empty means silently
	// drop the message after logging.
	FallbackReply string
	MainBotURL    string
	// PollTimeout is the long-poll hold in seconds.
	PollTimeout int
}

const emptyReplyText = "I'm not sure how to respond. Could you rephrase your question?"

// queueSize bounds how many updates a single chat can have waiting. A
// chat flooding past this loses the overflow instead of stalling the
// poll loop for everyone.
const queueSize = 32

// Dispatcher runs the update event loop. Updates from the same chat are
// handled by one worker in arrival order; different chats proceed
// concurrently. A failure handling one update never affects others or the
// loop itself.
type Dispatcher struct {
	api       API
	completer Completer
	builder   *prompt.Builder
	store     *knowledge.Store
	history   *History
	opts      Options
	logger    zerolog.Logger

	ready atomic.Bool
	wg    sync.WaitGroup

	mu     sync.Mutex
	queues map[int64]chan Update

	// workCtx outlives the poll loop's context so accepted updates can
	// finish during shutdown; Drain cancels it when the grace period
	// expires.
	workCtx    context.Context
	workCancel context.CancelFunc

	// pollRetryDelay is how long to back off after a failed poll.
	pollRetryDelay time.Duration
	// workerIdle is how long a chat's worker lingers without traffic
	// before retiring.
	workerIdle time.Duration
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(api API, completer Completer, builder *prompt.Builder, store *knowledge.Store, history *History, opts Options, logger zerolog.Logger) *Dispatcher {
	workCtx, workCancel := context.WithCancel(context.Background())
	return &Dispatcher{
		api:            api,
		completer:      completer,
		builder:        builder,
		store:          store,
		history:        history,
		opts:           opts,
		logger:         logger.With().Str("component", "dispatcher").Logger(),
		queues:         make(map[int64]chan Update),
		workCtx:        workCtx,
		workCancel:     workCancel,
		pollRetryDelay: 3 * time.Second,
		workerIdle:     5 * time.Minute,
	}
}

// Ready reports whether the event loop is polling for updates.
func (d *Dispatcher) Ready() bool {
	return d.ready.Load()
}

// Run polls for updates until ctx is cancelled. New updates stop being
// accepted the moment ctx is done; already-accepted ones keep running
// until Drain's grace period expires.
func (d *Dispatcher) Run(ctx context.Context) {
	d.ready.Store(true)
	defer d.ready.Store(false)

	d.logger.Info().Msg("event loop started")

	var offset int64
	for {
		if ctx.Err() != nil {
			d.logger.Info().Msg("event loop stopping")
			return
		}

		updates, err := d.api.GetUpdates(ctx, offset, d.opts.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				d.logger.Info().Msg("event loop stopping")
				return
			}
			d.logger.Warn().Err(err).Msg("poll failed")
			select {
			case <-time.After(d.pollRetryDelay):
			case <-ctx.Done():
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			d.enqueue(u)
		}
	}
}

// Drain waits up to grace for accepted updates to finish. On timeout the
// in-flight work is cancelled and an error returned.
func (d *Dispatcher) Drain(grace time.Duration) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(grace):
		d.workCancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
		}
		return fmt.Errorf("drain timed out after %s", grace)
	}
}

// enqueue routes an update to its chat's worker, creating the worker on
// first use. One worker per chat is what guarantees in-order replies
// within a conversation. The send happens under the lock so a worker
// cannot retire its queue between lookup and send, and it never blocks:
// a full queue drops the update.
func (d *Dispatcher) enqueue(u Update) {
	chatID, ok := chatOf(u)
	if !ok {
		return
	}

	d.mu.Lock()
	ch, exists := d.queues[chatID]
	if !exists {
		ch = make(chan Update, queueSize)
		d.queues[chatID] = ch
		go d.worker(chatID, ch)
	}
	select {
	case ch <- u:
		d.wg.Add(1)
	default:
		d.logger.Warn().Int64("chat", chatID).Int64("update_id", u.UpdateID).Msg("chat queue full, dropping update")
	}
	d.mu.Unlock()
}

// worker drains one chat's queue. A worker that sits idle long enough
// removes its queue from the map and exits; the next message for the
// chat creates a fresh one.
func (d *Dispatcher) worker(chatID int64, ch chan Update) {
	idle := time.NewTimer(d.workerIdle)
	defer idle.Stop()
	for {
		select {
		case u := <-ch:
			d.handle(u)
			d.wg.Done()
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(d.workerIdle)
		case <-idle.C:
			d.mu.Lock()
			if len(ch) > 0 {
				d.mu.Unlock()
				idle.Reset(d.workerIdle)
				continue
			}
			delete(d.queues, chatID)
			d.mu.Unlock()
			return
		}
	}
}

// chatOf extracts the conversation an update belongs to.
func chatOf(u Update) (int64, bool) {
	switch {
	case u.Message != nil:
		return u.Message.Chat.ID, true
	case u.CallbackQuery != nil && u.CallbackQuery.Message != nil:
		return u.CallbackQuery.Message.Chat.ID, true
	}
	return 0, false
}

// handle processes one update. Errors and panics are contained here.
func (d *Dispatcher) handle(u Update) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().Interface("panic", r).Int64("update_id", u.UpdateID).Msg("recovered from handler panic")
		}
	}()

	switch {
	case u.CallbackQuery != nil:
		d.handleCallback(d.workCtx, u.CallbackQuery)
	case u.Message != nil && u.Message.Text != "":
		if u.Message.From != nil && u.Message.From.IsBot {
			return
		}
		if strings.HasPrefix(u.Message.Text, "/") {
			d.handleCommand(d.workCtx, u.Message)
		} else {
			d.handleChat(d.workCtx, u.Message)
		}
	}
}

// handleCommand serves /start and /menu.
func (d *Dispatcher) handleCommand(ctx context.Context, m *Message) {
	cmd := strings.Fields(m.Text)[0]
	// Strip the @botname suffix used in group chats.
	cmd, _, _ = strings.Cut(cmd, "@")

	var out Outgoing
	switch cmd {
	case "/start":
		out = Outgoing{ChatID: m.Chat.ID, Text: welcomeText, ParseMode: "HTML", Keyboard: mainMenuKeyboard(d.opts.MainBotURL)}
	case "/menu":
		out = Outgoing{ChatID: m.Chat.ID, Text: menuText, ParseMode: "HTML", Keyboard: mainMenuKeyboard(d.opts.MainBotURL)}
	default:
		return
	}
	if err := d.api.SendMessage(ctx, out); err != nil {
		d.logger.Error().Err(err).Str("command", cmd).Msg("command reply failed")
	}
}

// handleChat runs the grounded completion pipeline for one user message:
// knowledge lookup, completion, reply. Any failure ends in either the
// fallback reply or a logged drop.
func (d *Dispatcher) handleChat(ctx context.Context, m *Message) {
	corr := uuid.NewString()[:8]
	log := d.logger.With().Str("msg", corr).Int64("chat", m.Chat.ID).Logger()

	userID := m.Chat.ID
	if m.From != nil {
		userID = m.From.ID
	}

	log.Debug().Int("chars", len(m.Text)).Msg("message received")

	// Take one snapshot up front; it stays consistent for the whole
	// message even if a refresh lands mid-handling.
	snap := d.store.Current()
	hist := d.history.Messages(userID)
	msgs := d.builder.Build(m.Text, hist, snap)
	log.Debug().Int("knowledge_chars", snap.TotalChars()).Int("history", len(hist)).Msg("prompt grounded")

	resp, err := d.completer.Complete(ctx, llm.CompletionRequest{
		Model:       d.opts.Model,
		Messages:    msgs,
		MaxTokens:   d.opts.MaxTokens,
		Temperature: d.opts.Temperature,
	})
	if err != nil {
		log.Error().Err(err).Msg("completion failed")
		d.sendFallback(ctx, m.Chat.ID, log)
		return
	}

	reply := strings.TrimSpace(resp.Content)
	if reply == "" {
		reply = emptyReplyText
	}

	d.history.Append(userID, llm.RoleUser, m.Text)
	d.history.Append(userID, llm.RoleAssistant, reply)

	out := Outgoing{
		ChatID:    m.Chat.ID,
		Text:      RenderHTML(reply),
		ParseMode: "HTML",
		Keyboard:  backKeyboard(d.opts.MainBotURL),
	}
	if err := d.api.SendMessage(ctx, out); err != nil {
		log.Error().Err(err).Msg("reply send failed")
		return
	}
	log.Info().Int("reply_chars", len(reply)).Msg("replied")
}

// sendFallback delivers the configured apology, or logs a drop when the
// fallback is disabled.
func (d *Dispatcher) sendFallback(ctx context.Context, chatID int64, log zerolog.Logger) {
	if d.opts.FallbackReply == "" {
		log.Warn().Msg("dropping message per policy")
		return
	}
	out := Outgoing{ChatID: chatID, Text: d.opts.FallbackReply, Keyboard: backKeyboard(d.opts.MainBotURL)}
	if err := d.api.SendMessage(ctx, out); err != nil {
		log.Error().Err(err).Msg("fallback send failed")
	}
}

// handleCallback serves inline keyboard presses.
func (d *Dispatcher) handleCallback(ctx context.Context, q *CallbackQuery) {
	if err := d.api.AnswerCallbackQuery(ctx, q.ID); err != nil {
		d.logger.Warn().Err(err).Msg("answering callback failed")
	}
	if q.Message == nil {
		return
	}
	chatID := q.Message.Chat.ID

	var out Outgoing
	switch q.Data {
	case callbackMenu:
		out = Outgoing{ChatID: chatID, Text: menuText, ParseMode: "HTML", Keyboard: mainMenuKeyboard(d.opts.MainBotURL)}
	case callbackInfo:
		out = Outgoing{ChatID: chatID, Text: infoText, ParseMode: "HTML", Keyboard: backKeyboard(d.opts.MainBotURL)}
	case callbackAsk:
		out = Outgoing{ChatID: chatID, Text: askText, ParseMode: "HTML", Keyboard: backKeyboard(d.opts.MainBotURL)}
	case callbackClear:
		if q.From != nil {
			d.history.Clear(q.From.ID)
		}
		out = Outgoing{ChatID: chatID, Text: historyClearedText, ParseMode: "HTML", Keyboard: backKeyboard(d.opts.MainBotURL)}
	default:
		return
	}

	// Edit the pressed message in place so navigating the menu does not
	// stack duplicates in the chat.
	err := d.api.EditMessageText(ctx, chatID, q.Message.MessageID, out.Text, out.Keyboard)
	switch {
	case err == nil:
	case strings.Contains(err.Error(), "message is not modified"):
		// Same button pressed twice; nothing to change.
	default:
		d.logger.Debug().Err(err).Str("callback", q.Data).Msg("edit failed, sending a new message")
		if err := d.api.SendMessage(ctx, out); err != nil {
			d.logger.Error().Err(err).Str("callback", q.Data).Msg("callback reply failed")
		}
	}
}
