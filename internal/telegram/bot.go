package telegram

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"meal-board/internal/app"
	"meal-board/internal/clipper"
	"meal-board/internal/config"
	"meal-board/internal/metrics"
)

const updateTimeout = 2 * time.Minute

// secretHeader carries the secret_token registered with setWebhook.
const secretHeader = "X-Telegram-Bot-Api-Secret-Token"

// Sender is the part of the Telegram API the bot talks to.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// UsageReporter summarises recorded LLM usage for the /metrics report.
type UsageReporter interface {
	GetDailyUsage(ctx context.Context, days int) ([]metrics.DailyUsage, error)
}

// Bot drives one shared meal board from Telegram chats.
type Bot struct {
	api         Sender
	app         *app.App
	usage       UsageReporter
	boardUserID string
	allowed     []int64
	adminID     int64
	dataPath    string
	secret      string
	logger      *zap.Logger

	decode func(r *http.Request) (*tgbotapi.Update, error)
	wg     sync.WaitGroup
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, a *app.App, usage UsageReporter, dataPath string, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	logger.Info("Authorized on Telegram", zap.String("account", api.Self.UserName))

	secret := cfg.TelegramWebhookSecret
	if secret == "" {
		secret = strings.ReplaceAll(uuid.NewString(), "-", "")
	}

	// WebhookConfig has no secret_token field, so the call is built by hand.
	params := tgbotapi.Params{"url": cfg.TelegramWebhookURL, "secret_token": secret}
	resp, err := api.MakeRequest("setWebhook", params)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	logger.Info("Webhook set", zap.String("description", resp.Description))

	b := newBot(api, a, usage, cfg, dataPath, logger)
	b.secret = secret
	b.decode = api.HandleUpdate
	return b, nil
}

func newBot(api Sender, a *app.App, usage UsageReporter, cfg *config.Config, dataPath string, logger *zap.Logger) *Bot {
	return &Bot{
		api:         api,
		app:         a,
		usage:       usage,
		boardUserID: cfg.TelegramBoardUserID,
		allowed:     cfg.TelegramAllowedUserIDs,
		adminID:     cfg.AdminTelegramID,
		dataPath:    dataPath,
		secret:      cfg.TelegramWebhookSecret,
		logger:      logger,
	}
}

// ServeHTTP is the webhook endpoint. Requests without the registered secret
// token are refused before the body is read. Updates are processed in the
// background so Telegram gets its answer right away.
func (b *Bot) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !b.verifySecret(r) {
		b.logger.Warn("⚠️ Webhook request with a bad secret token", zap.String("remote_addr", r.RemoteAddr))
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	update, err := b.decode(r)
	if err != nil {
		b.logger.Warn("Error parsing update", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
		defer cancel()
		b.HandleUpdate(ctx, *update)
	}()
}

func (b *Bot) verifySecret(r *http.Request) bool {
	if b.secret == "" {
		return false
	}
	got := r.Header.Get(secretHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(b.secret)) == 1
}

// Close waits for in-flight updates.
func (b *Bot) Close() {
	b.wg.Wait()
}

// HandleUpdate processes one update from an allowed user and ignores the rest.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if b.isAllowed(update.CallbackQuery.From) {
			b.handleCallbackQuery(ctx, update.CallbackQuery)
		}
	case update.Message != nil:
		if b.isAllowed(update.Message.From) {
			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) isAllowed(from *tgbotapi.User) bool {
	if from == nil {
		return false
	}
	if slices.Contains(b.allowed, from.ID) {
		return true
	}
	b.logger.Warn("⚠️ Unauthorized access attempt", zap.Int64("telegram_id", from.ID), zap.String("username", from.UserName))
	return false
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)
	if clipper.IsURL(text) {
		b.handleClipperRequest(ctx, msg.Chat.ID, text)
		return
	}

	cmd, args := parseCommand(text)
	if cmd == "metrics" {
		b.handleMetricsRequest(ctx, msg)
		return
	}

	ws, err := b.app.ForUser(ctx, b.boardUserID)
	if err != nil {
		b.logger.Error("Failed to open board", zap.String("user_id", b.boardUserID), zap.Error(err))
		b.send(msg.Chat.ID, errorText("opening the board", err), nil)
		return
	}
	r := dispatch(ctx, ws, cmd, args)
	b.send(msg.Chat.ID, r.text, r.markup)
}

func (b *Bot) handleClipperRequest(ctx context.Context, chatID int64, url string) {
	sent, err := b.send(chatID, "✂️ *Clipping recipe...*\n(Extracting ingredients and adding it to your trial list)", nil)
	if err != nil {
		return
	}

	var finalText string
	ws, err := b.app.ForUser(ctx, b.boardUserID)
	if err == nil {
		finalText, err = importRecipe(ctx, ws, url)
	}
	if err != nil {
		b.logger.Error("Error clipping recipe", zap.String("url", url), zap.Error(err))
		finalText = errorText("clipping recipe", err)
		if errors.Is(err, app.ErrImportFailed) {
			b.sendAdminAlert(fmt.Sprintf("⚠️ *Import Failed*\nURL: %s", url))
		}
	}

	edit := tgbotapi.NewEditMessageText(chatID, sent.MessageID, finalText)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Warn("Failed to edit reply", zap.Error(err))
	}
}

// handleCallbackQuery toggles a grocery line from the /list keyboard.
// Callback data is "toggle|<line index>".
func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	notice := ""
	defer func() {
		if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, notice)); err != nil {
			b.logger.Warn("Failed to answer callback", zap.Error(err))
		}
	}()

	action, arg, _ := strings.Cut(query.Data, "|")
	if action != "toggle" || query.Message == nil {
		return
	}
	idx, err := strconv.Atoi(arg)
	if err != nil {
		return
	}

	ws, err := b.app.ForUser(ctx, b.boardUserID)
	if err != nil {
		notice = "Board unavailable, try again."
		return
	}
	lines := ws.Groceries().Lines
	if idx < 0 || idx >= len(lines) {
		notice = "The list changed. Send /list again."
		return
	}
	if err := ws.SetChecked(lines[idx].Text, !lines[idx].Checked); err != nil {
		notice = "The list changed. Send /list again."
		return
	}

	r := groceryReply(ws.Groceries())
	var edit tgbotapi.EditMessageTextConfig
	if r.markup != nil {
		edit = tgbotapi.NewEditMessageTextAndMarkup(query.Message.Chat.ID, query.Message.MessageID, r.text, *r.markup)
	} else {
		edit = tgbotapi.NewEditMessageText(query.Message.Chat.ID, query.Message.MessageID, r.text)
	}
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Warn("Failed to edit grocery list", zap.Error(err))
	}
}

func (b *Bot) handleMetricsRequest(ctx context.Context, msg *tgbotapi.Message) {
	if b.adminID == 0 || msg.From.ID != b.adminID {
		b.send(msg.Chat.ID, "⛔ *Access Denied*: Admin only.", nil)
		return
	}
	if b.usage == nil {
		b.send(msg.Chat.ID, "❌ Metrics are not enabled.", nil)
		return
	}
	usage, err := b.usage.GetDailyUsage(ctx, 7)
	if err != nil {
		b.logger.Error("Failed to fetch metrics", zap.Error(err))
		b.send(msg.Chat.ID, "❌ Error fetching metrics.", nil)
		return
	}
	b.send(msg.Chat.ID, formatMetrics(usage, metrics.GetSysHealth(b.dataPath)), nil)
}

func formatMetrics(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution))
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", health.DataDiskSize))
	return sb.String()
}

func (b *Bot) sendAdminAlert(text string) {
	if b.adminID == 0 {
		return
	}
	b.send(b.adminID, text, nil)
}

func (b *Bot) send(chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	sent, err := b.api.Send(msg)
	if err != nil {
		b.logger.Warn("Failed to send reply", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	return sent, err
}
