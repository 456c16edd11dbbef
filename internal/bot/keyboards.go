package bot

import (
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"estate_bot/internal/model"
	"estate_bot/internal/wizard"
)

// Callback data. Parameterised actions use "<action>:<value>".
const (
	cbMenu        = "menu"
	cbSearch      = "search"
	cbToggle      = "toggle"
	cbNext        = "next"
	cbBack        = "back"
	cbPage        = "page"
	cbSubscribe   = "subscribe"
	cbUnsubscribe = "unsubscribe"
	cbByID        = "by_id"
	cbAbout       = "about"
	cbChannel     = "channel"
	cbContact     = "contact"
)

func mark(label string, selected bool) string {
	if selected {
		return label + " ✅"
	}
	return label
}

func button(label, data string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(label, data)
}

func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(button("🏠 Выбор квартиры", cbSearch)),
		tgbotapi.NewInlineKeyboardRow(button("🔍 Поиск по ID", cbByID)),
		tgbotapi.NewInlineKeyboardRow(button("✉️ Подписаться на рассылку", cbSubscribe)),
		tgbotapi.NewInlineKeyboardRow(button("⛔ Отписаться от рассылки", cbUnsubscribe)),
		tgbotapi.NewInlineKeyboardRow(button("👤 Обо мне", cbAbout)),
		tgbotapi.NewInlineKeyboardRow(button("📢 Канал с вариантами квартир", cbChannel)),
		tgbotapi.NewInlineKeyboardRow(button("💬 Связаться со мной", cbContact)),
	)
}

// stageKeyboard lists the options of a facet stage with the current
// selection marked. "Next" only appears once the facet is decided.
func stageKeyboard(stage wizard.Stage, f model.FilterSet) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	perRow := 1
	if stage == wizard.StageRooms {
		perRow = 3
	}
	var row []tgbotapi.InlineKeyboardButton
	for _, o := range wizard.Options(stage) {
		row = append(row, button(mark(o.Label, wizard.Selected(f, stage, o.Value)), cbToggle+":"+o.Value))
		if len(row) == perRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		button(mark("Не важно", wizard.Selected(f, stage, wizard.AnyValue)), cbToggle+":"+wizard.AnyValue),
	))
	if facetReady(stage, f) {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("Далее ▶️", cbNext)))
	}

	back := "◀️ Назад"
	if stage == wizard.StageType {
		back = "◀️ Отмена"
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(button(back, cbBack)))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func facetReady(stage wizard.Stage, f model.FilterSet) bool {
	switch stage {
	case wizard.StageType:
		return f.Type.Ready()
	case wizard.StageDistrict:
		return f.District.Ready()
	case wizard.StageCondition:
		return f.Condition.Ready()
	case wizard.StageArea:
		return f.Area.Ready()
	case wizard.StageRooms:
		return f.Rooms.Ready()
	case wizard.StagePrice:
		return f.Price.Ready()
	}
	return false
}

func paginationKeyboard(page, totalPages int) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var nav []tgbotapi.InlineKeyboardButton
	if page > 1 {
		nav = append(nav, button("◀️ Назад", cbPage+":"+strconv.Itoa(page-1)))
	}
	if page < totalPages {
		nav = append(nav, button("Вперёд ▶️", cbPage+":"+strconv.Itoa(page+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("🏠 Главное меню", cbMenu)))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func subscriptionOfferKeyboard(active bool) tgbotapi.InlineKeyboardMarkup {
	if active {
		return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(button("❌ Отписаться", cbUnsubscribe)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(button("📬 Подписаться на рассылку", cbSubscribe)))
}

func subscribeFirstKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(button("🏠 Выбрать квартиру", cbSearch)),
		tgbotapi.NewInlineKeyboardRow(button("◀️ Главное меню", cbMenu)),
	)
}

func cancelKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(button("◀️ Отмена", cbMenu)))
}

func retryIDKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(button("🔍 Поиск по ID", cbByID)),
		tgbotapi.NewInlineKeyboardRow(button("🏠 Главное меню", cbMenu)),
	)
}

// linkKeyboard offers an external link, when configured, and a way back.
func linkKeyboard(label, url string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	if url != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL(label, url)))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("◀️ Назад", cbMenu)))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
