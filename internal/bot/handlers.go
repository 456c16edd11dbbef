package bot

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"estate_bot/internal/apiclient"
	"estate_bot/internal/storage"
	"estate_bot/internal/wizard"
)

const (
	cmdStart       = "start"
	cmdMenu        = "menu"
	cmdSearch      = "search"
	cmdID          = "id"
	cmdSubscribe   = "subscribe"
	cmdUnsubscribe = "unsubscribe"
	cmdCheckNew    = "check_new"
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	ref := chatRef{chatID: msg.Chat.ID, userID: msg.From.ID}

	b.log.Info("command",
		"command", msg.Command(),
		"chat_id", ref.chatID,
		"user_id", ref.userID,
		"username", msg.From.UserName,
	)

	switch msg.Command() {
	case cmdStart:
		b.handleStart(ref.chatID)
	case cmdMenu:
		b.fire(ctx, ref, wizard.Event{Kind: wizard.EventCancel})
	case cmdSearch:
		b.fire(ctx, ref, wizard.Event{Kind: wizard.EventStart})
	case cmdID:
		b.fire(ctx, ref, wizard.Event{Kind: wizard.EventSearchByID})
	case cmdSubscribe:
		b.subscribe(ctx, ref)
	case cmdUnsubscribe:
		b.unsubscribe(ctx, ref)
	case cmdCheckNew:
		b.handleCheckNew(ctx, ref.chatID)
	default:
		b.reply(ref.chatID, unknownCommandText)
	}
}

// handleText treats plain text as a listing id while one is expected and
// shows the menu otherwise.
func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	ref := chatRef{chatID: msg.Chat.ID, userID: msg.From.ID}
	if b.session(ref.chatID).Stage != wizard.StageAwaitingID {
		b.show(ref.chatID, 0, menuText, mainMenuKeyboard())
		return
	}
	b.fire(ctx, ref, wizard.Event{Kind: wizard.EventIDEntered, Value: strings.TrimSpace(msg.Text)})
}

func (b *Bot) handleStart(chatID int64) {
	s := b.session(chatID)
	if _, err := s.Fire(wizard.Event{Kind: wizard.EventCancel}); err == nil {
		b.saveSession(chatID, s)
	}
	b.show(chatID, 0, welcomeText, mainMenuKeyboard())
}

func (b *Bot) handleCheckNew(ctx context.Context, chatID int64) {
	if b.sweeper == nil {
		b.reply(chatID, checkDisabledText)
		return
	}
	b.reply(chatID, checkStartedText)

	rep, err := b.sweeper.Sweep(ctx)
	if err != nil {
		b.log.Error("manual sweep failed", "chat_id", chatID, "error", err)
		b.reply(chatID, checkFailedText(err))
		return
	}
	b.reply(chatID, checkDoneText(rep.New, rep.Sent))
}

// showResults sends one page of search results: a card per listing, the page
// footer with navigation and, on the first page, the subscription offer. An
// unreachable API reads as an empty result.
func (b *Bot) showResults(ctx context.Context, ref chatRef, s wizard.Session) {
	b.notice(ref.chatID, ref.messageID, searchingText)

	page, err := b.listings.List(ctx, s.Filters, s.Page)
	if err != nil {
		b.log.Error("search failed, showing no results", "chat_id", ref.chatID, "page", s.Page, "error", err)
		page = &apiclient.Page{}
	}
	b.deleteMessage(ref.chatID, ref.messageID)

	total := page.TotalPages(s.Page)
	nav := paginationKeyboard(s.Page, total)
	if len(page.Listings) == 0 {
		b.show(ref.chatID, 0, notFoundText, nav)
	} else {
		for _, l := range page.Listings {
			if err := b.sendCard(ref.chatID, FormatCard(l), b.media.photos(l)); err != nil {
				b.log.Error("failed to send listing", "chat_id", ref.chatID, "listing_id", l.ID, "error", err)
			}
		}
		b.show(ref.chatID, 0, pageText(s.Page, total, page.Count), nav)
	}

	b.log.Info("search results sent", "chat_id", ref.chatID, "page", s.Page, "count", page.Count, "shown", len(page.Listings))

	if s.Page == 1 {
		b.offerSubscription(ctx, ref)
	}
}

func (b *Bot) offerSubscription(ctx context.Context, ref chatRef) {
	_, err := b.subs.GetSubscription(ctx, ref.userID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		b.log.Error("failed to load subscription", "user_id", ref.userID, "error", err)
		return
	}
	active := err == nil

	text := subscribeOfferText
	if active {
		text = activeOfferText
	}
	b.show(ref.chatID, 0, text, subscriptionOfferKeyboard(active))
}

func (b *Bot) subscribe(ctx context.Context, ref chatRef) ack {
	s := b.session(ref.chatID)
	if !s.Filters.Complete() {
		b.show(ref.chatID, ref.messageID, subscribeFirstText, subscribeFirstKeyboard())
		return ack{}
	}

	if err := b.subs.SaveSubscription(ctx, ref.userID, s.Filters); err != nil {
		b.log.Error("failed to save subscription", "user_id", ref.userID, "error", err)
		return ack{text: subscribeFailedText, alert: true}
	}
	b.log.Info("subscription saved", "user_id", ref.userID)
	b.show(ref.chatID, ref.messageID, subscribedText, mainMenuKeyboard())
	return ack{}
}

func (b *Bot) unsubscribe(ctx context.Context, ref chatRef) ack {
	deleted, err := b.subs.DeleteSubscription(ctx, ref.userID)
	if err != nil {
		b.log.Error("failed to delete subscription", "user_id", ref.userID, "error", err)
		return ack{text: subscribeFailedText, alert: true}
	}
	if !deleted {
		b.show(ref.chatID, ref.messageID, noSubscriptionText, mainMenuKeyboard())
		return ack{}
	}
	b.log.Info("subscription deleted", "user_id", ref.userID)
	b.show(ref.chatID, ref.messageID, unsubscribedText, mainMenuKeyboard())
	return ack{}
}

func (b *Bot) lookup(ctx context.Context, ref chatRef, id int64) {
	l, err := b.listings.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, apiclient.ErrNotFound) {
			b.log.Error("listing lookup failed", "listing_id", id, "error", err)
		}
		b.show(ref.chatID, ref.messageID, listingNotFoundText(id), retryIDKeyboard())
		return
	}

	if err := b.sendCard(ref.chatID, FormatCard(*l), b.media.photos(*l)); err != nil {
		b.log.Error("failed to send listing", "chat_id", ref.chatID, "listing_id", id, "error", err)
		return
	}
	b.show(ref.chatID, 0, foundText, mainMenuKeyboard())
}
