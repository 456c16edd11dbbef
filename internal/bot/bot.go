package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"estate_bot/internal/apiclient"
	"estate_bot/internal/config"
	"estate_bot/internal/model"
	"estate_bot/internal/notifier"
	"estate_bot/internal/wizard"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Listings is the read side of the listing API used by the bot.
type Listings interface {
	List(ctx context.Context, fs model.FilterSet, page int) (*apiclient.Page, error)
	Get(ctx context.Context, id int64) (*model.Listing, error)
}

// Subscriptions stores one saved filter set per user.
type Subscriptions interface {
	SaveSubscription(ctx context.Context, userID int64, fs model.FilterSet) error
	GetSubscription(ctx context.Context, userID int64) (*model.Subscription, error)
	DeleteSubscription(ctx context.Context, userID int64) (bool, error)
}

// Sweeper runs a notification sweep on demand.
type Sweeper interface {
	Sweep(ctx context.Context) (notifier.Report, error)
}

// Bot is the Telegram bot that drives the search wizard and delivers
// notifications.
type Bot struct {
	api      telegramAPI
	listings Listings
	subs     Subscriptions
	sweeper  Sweeper
	cfg      *config.Config
	media    mediaResolver
	log      *slog.Logger

	mu       sync.Mutex
	sessions map[int64]*wizard.Session
}

// New creates a Bot with the configured Telegram token.
func New(cfg *config.Config, listings Listings, subs Subscriptions, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return newBot(api, cfg, listings, subs, log), nil
}

func newBot(api telegramAPI, cfg *config.Config, listings Listings, subs Subscriptions, log *slog.Logger) *Bot {
	return &Bot{
		api:      api,
		listings: listings,
		subs:     subs,
		cfg:      cfg,
		media:    newMediaResolver(cfg.APIBaseURL, cfg.LocalMediaRoot),
		log:      log,
		sessions: make(map[int64]*wizard.Session),
	}
}

// SetSweeper enables the /check_new command.
func (b *Bot) SetSweeper(s Sweeper) {
	b.sweeper = s
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if cb := update.CallbackQuery; cb != nil {
		if cb.Message == nil {
			return
		}
		if !b.cfg.IsUserAllowed(cb.From.ID) {
			b.answer(cb.ID, accessDenied, true)
			return
		}
		b.handleCallback(ctx, cb)
		return
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	if !b.cfg.IsUserAllowed(msg.From.ID) {
		b.reply(msg.Chat.ID, accessDenied)
		return
	}
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	b.handleText(ctx, msg)
}

// session returns a copy of the chat's wizard state.
func (b *Bot) session(chatID int64) wizard.Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.sessions[chatID]; ok {
		return *s
	}
	return wizard.Session{}
}

func (b *Bot) saveSession(chatID int64, s wizard.Session) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions[chatID] = &s
}

// SendListing delivers a notification card for l. It implements
// notifier.Sender.
func (b *Bot) SendListing(ctx context.Context, chatID int64, l model.Listing) error {
	return b.sendCard(chatID, notificationHeader+FormatCard(l), b.media.photos(l))
}

// sendCard sends a listing card with its photos. One photo goes out with the
// card as caption, several as an album captioned on the first item. A card too
// long for a caption follows the photos as a separate message. When the photos
// cannot be delivered the card is sent as text.
func (b *Bot) sendCard(chatID int64, card string, photos []tgbotapi.RequestFileData) error {
	fits := captionLength(card) <= maxCaption

	var err error
	switch len(photos) {
	case 0:
		return b.sendHTML(chatID, card, nil)
	case 1:
		photo := tgbotapi.NewPhoto(chatID, photos[0])
		if fits {
			photo.Caption = card
			photo.ParseMode = tgbotapi.ModeHTML
		}
		_, err = b.api.Send(photo)
	default:
		media := make([]any, len(photos))
		for i, f := range photos {
			p := tgbotapi.NewInputMediaPhoto(f)
			if i == 0 && fits {
				p.Caption = card
				p.ParseMode = tgbotapi.ModeHTML
			}
			media[i] = p
		}
		_, err = b.api.Request(tgbotapi.NewMediaGroup(chatID, media))
	}

	if err != nil {
		b.log.Warn("send photos failed, falling back to text", "chat_id", chatID, "photos", len(photos), "error", err)
		return b.sendHTML(chatID, card, nil)
	}
	if !fits {
		return b.sendHTML(chatID, card, nil)
	}
	return nil
}

// sendHTML sends an HTML message, with an optional inline keyboard.
func (b *Bot) sendHTML(chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// show replaces the message the user clicked on, or sends a new one when
// there is nothing to edit or the edit fails.
func (b *Bot) show(chatID int64, messageID int, text string, markup tgbotapi.InlineKeyboardMarkup) {
	if messageID != 0 {
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
		edit.ParseMode = tgbotapi.ModeHTML
		edit.DisableWebPagePreview = true
		_, err := b.api.Send(edit)
		if err == nil || strings.Contains(err.Error(), "message is not modified") {
			return
		}
		b.log.Debug("edit message failed", "chat_id", chatID, "message_id", messageID, "error", err)
	}
	if err := b.sendHTML(chatID, text, &markup); err != nil {
		b.log.Error("failed to send message", "chat_id", chatID, "error", err)
	}
}

// notice replaces the text of a clicked message and drops its keyboard.
func (b *Bot) notice(chatID int64, messageID int, text string) {
	if messageID == 0 {
		return
	}
	if _, err := b.api.Send(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		b.log.Debug("edit message failed", "chat_id", chatID, "message_id", messageID, "error", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	if err := b.sendHTML(chatID, text, nil); err != nil {
		b.log.Error("failed to send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) answer(callbackID, text string, alert bool) {
	cb := tgbotapi.NewCallback(callbackID, text)
	cb.ShowAlert = alert
	if _, err := b.api.Request(cb); err != nil {
		b.log.Debug("failed to answer callback", "error", err)
	}
}

func (b *Bot) deleteMessage(chatID int64, messageID int) {
	if messageID == 0 {
		return
	}
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		b.log.Debug("failed to delete message", "chat_id", chatID, "message_id", messageID, "error", err)
	}
}
