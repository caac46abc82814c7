package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"dont-get-fat/internal/app"
	"dont-get-fat/internal/config"
	"dont-get-fat/internal/mealplan"
	"dont-get-fat/internal/metrics"
	"dont-get-fat/internal/planner"
	"dont-get-fat/internal/shared"
	"dont-get-fat/internal/storage"
)

// generationTimeout bounds a single generation triggered from chat.
const generationTimeout = 3 * time.Minute

// Sender is the part of the Telegram API the bot talks through.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot serves meal planning sessions over Telegram, one session per chat.
type Bot struct {
	api          Sender
	cfg          *config.Config
	deps         app.Deps
	metricsStore *metrics.Store

	mu       sync.Mutex
	sessions map[int64]*app.Session
}

// NewBot initializes the Telegram API client and sets the webhook.
func NewBot(cfg *config.Config, deps app.Deps, metricsStore *metrics.Store) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", api.Self.UserName)

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	return newBot(api, cfg, deps, metricsStore), nil
}

func newBot(api Sender, cfg *config.Config, deps app.Deps, metricsStore *metrics.Store) *Bot {
	return &Bot{
		api:          api,
		cfg:          cfg,
		deps:         deps,
		metricsStore: metricsStore,
		sessions:     make(map[int64]*app.Session),
	}
}

// RegisterHandlers registers the webhook and health handlers on mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

// Close tears down every open session.
func (b *Bot) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, s := range b.sessions {
		s.Close()
		delete(b.sessions, id)
	}
}

// session returns the chat's session, creating it over chat-namespaced storage.
// The profile is keyed by the Telegram user id.
func (b *Bot) session(chatID, userID int64) *app.Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.sessions[chatID]; ok {
		return s
	}
	deps := b.deps
	deps.Storage = storage.WithPrefix(b.deps.Storage, fmt.Sprintf("chat-%d:", chatID))
	deps.Metrics = alertingRecorder{bot: b, inner: b.deps.Metrics}
	s := app.NewSession(strconv.FormatInt(userID, 10), deps)
	b.sessions[chatID] = s
	return s
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Printf("Error parsing update: %v", err)
		return
	}
	b.dispatch(update, true)
}

// dispatch routes an update. async runs slow handlers off the webhook goroutine.
func (b *Bot) dispatch(update tgbotapi.Update, async bool) {
	run := func(f func()) {
		if async {
			go f()
		} else {
			f()
		}
	}

	if q := update.CallbackQuery; q != nil {
		if q.Message == nil || !b.allowed(q.From) {
			return
		}
		run(func() { b.handleCallbackQuery(q) })
		return
	}

	if update.Message == nil || update.Message.From == nil {
		return
	}
	if !b.allowed(update.Message.From) {
		log.Printf("⚠️ Unauthorized access attempt from UserID: %d (@%s)", update.Message.From.ID, update.Message.From.UserName)
		return
	}
	msg := update.Message
	run(func() { b.processMessage(msg) })
}

func (b *Bot) allowed(u *tgbotapi.User) bool {
	return u != nil && slices.Contains(b.cfg.TelegramAllowedUserIDs, u.ID)
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	cmd, args := msg.Command(), strings.Fields(msg.CommandArguments())
	s := b.session(msg.Chat.ID, msg.From.ID)

	switch cmd {
	case "plan":
		b.handlePlanRequest(msg, s)
	case "show":
		b.sendChunks(msg.Chat.ID, formatPlanMarkdown(s.Plan()))
	case "grocery":
		b.sendChunks(msg.Chat.ID, formatGroceryMarkdown(s.GroceryList()))
	case "regen":
		b.handleRegenerate(msg, s, args)
	case "toggle":
		b.handleToggle(msg, s, strings.TrimSpace(msg.CommandArguments()))
	case "clear":
		s.ClearChecked()
		b.reply(msg.Chat.ID, "🧹 All grocery items unchecked.")
	case "import":
		b.handleImport(msg, s, args)
	case "metrics":
		b.handleMetricsRequest(msg)
	default:
		b.reply(msg.Chat.ID, helpText)
	}
}

const helpText = `🥗 *Meal planner*
/plan - generate a new meal plan from your profile
/show - show the current plan
/grocery - show the grocery list
/regen 0-1 1-2 - replace selected meals (day-meal)
/toggle <item> - check or uncheck a grocery item
/clear - uncheck every grocery item
/import 0-1 <url> - replace a meal with a recipe from the web`

func (b *Bot) handlePlanRequest(msg *tgbotapi.Message, s *app.Session) {
	if s.Loading() {
		b.reply(msg.Chat.ID, "⏳ A plan is already being generated.")
		return
	}
	if s.Plan() != nil {
		keyboard := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🔄 Replace plan", "plan|replace"),
				tgbotapi.NewInlineKeyboardButtonData("✋ Keep current", "plan|keep"),
			),
		)
		out := tgbotapi.NewMessage(msg.Chat.ID, "🗓️ You already have a meal plan. Replacing it also resets your grocery list.\nWhat would you like to do?")
		out.ReplyMarkup = keyboard
		b.api.Send(out)
		return
	}

	sent, err := b.status(msg.Chat.ID, "🧑‍🍳 *Thinking...* \n(Generating your meal plan)")
	if err != nil {
		return
	}
	b.generateAndSendPlan(s, msg.Chat.ID, sent.MessageID)
}

func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	// Answer callback to remove spinner
	b.api.Request(tgbotapi.NewCallback(query.ID, ""))

	chatID, messageID := query.Message.Chat.ID, query.Message.MessageID
	action, choice, _ := strings.Cut(query.Data, "|")
	if action != "plan" {
		return
	}
	if choice != "replace" {
		b.edit(chatID, messageID, "👍 Keeping your current plan.")
		return
	}

	s := b.session(chatID, query.From.ID)
	b.edit(chatID, messageID, "🧑‍🍳 *Thinking...*")
	b.generateAndSendPlan(s, chatID, messageID)
}

func (b *Bot) generateAndSendPlan(s *app.Session, chatID int64, messageID int) {
	ctx, cancel := context.WithTimeout(context.Background(), generationTimeout)
	defer cancel()

	plan, err := s.GenerateMealPlan(ctx)
	if err != nil {
		log.Printf("Error generating plan for chat %d: %v", chatID, err)
		b.edit(chatID, messageID, "❌ *Error generating plan:*\n"+escapeMarkdown(app.UserMessage(err)))
		return
	}

	chunks := splitMessage(formatPlanMarkdown(plan))
	b.edit(chatID, messageID, chunks[0])
	for _, c := range chunks[1:] {
		b.reply(chatID, c)
	}
	b.sendChunks(chatID, formatGroceryMarkdown(s.GroceryList()))
}

func (b *Bot) handleRegenerate(msg *tgbotapi.Message, s *app.Session, args []string) {
	refs, err := mealplan.ParseMealRefs(args)
	if err != nil || len(refs) == 0 {
		b.reply(msg.Chat.ID, "Usage: /regen 0-1 1-2 (day-meal, as shown by /show)")
		return
	}
	if s.Regenerating() {
		b.reply(msg.Chat.ID, "⏳ Meals are already being regenerated.")
		return
	}

	sent, err := b.status(msg.Chat.ID, fmt.Sprintf("🔄 *Regenerating %d meal(s)...*", len(refs)))
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), generationTimeout)
	defer cancel()

	if err := s.RegenerateSelectedMeals(ctx, refs); err != nil {
		log.Printf("Error regenerating meals for chat %d: %v", msg.Chat.ID, err)
		b.edit(msg.Chat.ID, sent.MessageID, "❌ *Error regenerating meals:*\n"+escapeMarkdown(app.UserMessage(err)))
		return
	}
	chunks := splitMessage(formatPlanMarkdown(s.Plan()))
	b.edit(msg.Chat.ID, sent.MessageID, chunks[0])
	for _, c := range chunks[1:] {
		b.reply(msg.Chat.ID, c)
	}
}

func (b *Bot) handleToggle(msg *tgbotapi.Message, s *app.Session, item string) {
	if item == "" {
		b.reply(msg.Chat.ID, "Usage: /toggle <item>")
		return
	}
	if !s.ToggleGroceryItem(item) {
		b.reply(msg.Chat.ID, fmt.Sprintf("🤷 %s is not on your grocery list.", escapeMarkdown(item)))
		return
	}
	b.sendChunks(msg.Chat.ID, formatGroceryMarkdown(s.GroceryList()))
}

func (b *Bot) handleImport(msg *tgbotapi.Message, s *app.Session, args []string) {
	if len(args) != 2 {
		b.reply(msg.Chat.ID, "Usage: /import 0-1 https://example.com/recipe")
		return
	}
	ref, err := mealplan.ParseMealRef(args[0])
	if err != nil || !(strings.HasPrefix(args[1], "http://") || strings.HasPrefix(args[1], "https://")) {
		b.reply(msg.Chat.ID, "Usage: /import 0-1 https://example.com/recipe")
		return
	}

	sent, err := b.status(msg.Chat.ID, "✂️ *Clipping recipe...*")
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	meal, err := s.ImportMeal(ctx, ref, args[1])
	if err != nil {
		log.Printf("Error importing recipe: %v", err)
		b.edit(msg.Chat.ID, sent.MessageID, "❌ *Error importing recipe:*\n"+escapeMarkdown(app.UserMessage(err)))
		return
	}
	b.edit(msg.Chat.ID, sent.MessageID, fmt.Sprintf("✅ *Imported* %s into day %d.", escapeMarkdown(meal.Name), ref.Day+1))
}

func (b *Bot) handleMetricsRequest(msg *tgbotapi.Message) {
	if msg.From.ID != b.cfg.AdminTelegramID {
		b.reply(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
		return
	}
	b.handleMetricsCommand(msg.Chat.ID)
}

func (b *Bot) handleMetricsCommand(chatID int64) {
	if b.metricsStore == nil {
		b.reply(chatID, "❌ Metrics are not enabled.")
		return
	}
	usage, err := b.metricsStore.GetDailyUsage(7)
	if err != nil {
		b.reply(chatID, "❌ Error fetching metrics.")
		return
	}
	b.reply(chatID, formatMetricsMarkdown(usage, metrics.GetSysHealth(b.cfg.DataDir)))
}

func (b *Bot) sendAdminAlert(text string) {
	if b.cfg.AdminTelegramID == 0 {
		return
	}
	b.reply(b.cfg.AdminTelegramID, text)
}

func (b *Bot) status(chatID int64, text string) (tgbotapi.Message, error) {
	out := tgbotapi.NewMessage(chatID, text)
	out.ParseMode = tgbotapi.ModeMarkdown
	sent, err := b.api.Send(out)
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
	}
	return sent, err
}

func (b *Bot) reply(chatID int64, text string) {
	out := tgbotapi.NewMessage(chatID, text)
	out.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(out); err != nil {
		log.Printf("Failed to send message to chat %d: %v", chatID, err)
	}
}

func (b *Bot) sendChunks(chatID int64, text string) {
	for _, c := range splitMessage(text) {
		b.reply(chatID, c)
	}
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	e := tgbotapi.NewEditMessageText(chatID, messageID, text)
	e.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(e); err != nil {
		log.Printf("Failed to edit message in chat %d: %v", chatID, err)
	}
}

// alertingRecorder records usage and warns the admin about context bloat.
type alertingRecorder struct {
	bot   *Bot
	inner planner.MetaRecorder
}

func (r alertingRecorder) RecordMeta(m shared.AgentMeta) error {
	if m.Usage.PromptTokens > 4000 {
		r.bot.sendAdminAlert(fmt.Sprintf("⚠️ *Context Bloat Alert*\nAgent: %s\nModel: %s\nPrompt Tokens: %d", m.AgentName, m.Usage.Model, m.Usage.PromptTokens))
	}
	if r.inner == nil {
		return nil
	}
	return r.inner.RecordMeta(m)
}
