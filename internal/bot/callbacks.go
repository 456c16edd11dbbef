package bot

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"estate_bot/internal/wizard"
)

// chatRef identifies where a user action came from. messageID is the message
// to edit in place; it is zero for typed input.
type chatRef struct {
	chatID    int64
	userID    int64
	messageID int
}

// ack is the answer to a callback query.
type ack struct {
	text  string
	alert bool
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	ref := chatRef{
		chatID:    cb.Message.Chat.ID,
		userID:    cb.From.ID,
		messageID: cb.Message.MessageID,
	}
	action, value, _ := strings.Cut(cb.Data, ":")

	b.log.Info("callback",
		"action", action,
		"value", value,
		"chat_id", ref.chatID,
		"user_id", ref.userID,
		"username", cb.From.UserName,
	)

	a := b.route(ctx, ref, action, value)
	b.answer(cb.ID, a.text, a.alert)
}

func (b *Bot) route(ctx context.Context, ref chatRef, action, value string) ack {
	switch action {
	case cbMenu:
		return b.fire(ctx, ref, wizard.Event{Kind: wizard.EventCancel})
	case cbSearch:
		return b.fire(ctx, ref, wizard.Event{Kind: wizard.EventStart})
	case cbToggle:
		return b.fire(ctx, ref, wizard.Event{Kind: wizard.EventToggle, Value: value})
	case cbNext:
		return b.fire(ctx, ref, wizard.Event{Kind: wizard.EventNext})
	case cbBack:
		return b.fire(ctx, ref, wizard.Event{Kind: wizard.EventBack})
	case cbPage:
		page, err := strconv.Atoi(value)
		if err != nil {
			return ack{}
		}
		return b.fire(ctx, ref, wizard.Event{Kind: wizard.EventPage, Page: page})
	case cbByID:
		return b.fire(ctx, ref, wizard.Event{Kind: wizard.EventSearchByID})
	case cbSubscribe:
		return b.subscribe(ctx, ref)
	case cbUnsubscribe:
		return b.unsubscribe(ctx, ref)
	case cbAbout:
		b.show(ref.chatID, ref.messageID, aboutText, linkKeyboard("💬 Связаться со мной", b.cfg.ContactURL))
	case cbChannel:
		b.show(ref.chatID, ref.messageID, channelText, linkKeyboard("📢 Перейти в канал", b.cfg.ChannelURL))
	case cbContact:
		b.show(ref.chatID, ref.messageID, contactText, linkKeyboard("💬 Написать", b.cfg.ContactURL))
	default:
		b.log.Debug("unknown callback", "action", action)
	}
	return ack{}
}

// fire feeds ev into the chat's wizard session and carries out the effect.
func (b *Bot) fire(ctx context.Context, ref chatRef, ev wizard.Event) ack {
	s := b.session(ref.chatID)
	eff, err := s.Fire(ev)
	if err != nil {
		b.log.Debug("wizard refused event", "chat_id", ref.chatID, "stage", s.Stage.String(), "error", err)
		return ack{text: staleButtonText, alert: true}
	}
	b.saveSession(ref.chatID, s)

	switch eff {
	case wizard.EffectRender:
		b.show(ref.chatID, ref.messageID, stageText(s.Stage), stageKeyboard(s.Stage, s.Filters))
	case wizard.EffectReject:
		return ack{text: rejectText(s.Stage), alert: true}
	case wizard.EffectSearch:
		b.showResults(ctx, ref, s)
	case wizard.EffectMenu:
		b.show(ref.chatID, ref.messageID, menuText, mainMenuKeyboard())
	case wizard.EffectPromptID:
		b.show(ref.chatID, ref.messageID, askIDText, cancelKeyboard())
	case wizard.EffectInvalidID:
		b.show(ref.chatID, ref.messageID, invalidIDText, cancelKeyboard())
	case wizard.EffectLookup:
		b.lookup(ctx, ref, s.ListingID)
	}
	return ack{}
}

func rejectText(s wizard.Stage) string {
	if text, ok := rejectTexts[s]; ok {
		return text
	}
	return searchFirstText
}
