package bot

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"estate_bot/internal/model"
	"estate_bot/internal/wizard"
)

const (
	notificationHeader = "🔔 <b>Новая квартира по вашим фильтрам!</b>\n\n"
	searchHeader       = "🏠 <b>Выбор квартиры</b>\n\n"

	welcomeText = "🏠 <b>Добро пожаловать!</b>\n\n" +
		"Я помогу вам подобрать квартиру в Ташкенте.\n\n" +
		"Выберите действие из меню:"
	menuText     = "🏠 <b>Главное меню</b>\n\nВыберите действие:"
	aboutText    = "👤 <b>Обо мне</b>\n\n🔑 Только реальные объекты\n🏡 Квартиры с ремонтом, мебелью и локацией\n🔥 Без фейка, только то, что продаётся"
	channelText  = "📢 <b>Канал с вариантами квартир</b>\n\nПодпишитесь на наш канал, чтобы видеть все доступные варианты квартир!"
	contactText  = "💬 <b>Связаться со мной</b>\n\nСвяжитесь с нашим консультантом для получения дополнительной информации."
	notFoundText = "😔 К сожалению, по вашим критериям ничего не найдено.\n\nПопробуйте изменить параметры поиска."

	subscribeFirstText = "✉️ <b>Подписка на рассылку</b>\n\n" +
		"Для подписки на рассылку сначала выполните поиск квартиры с нужными параметрами.\n" +
		"После этого вы сможете подписаться на уведомления о новых квартирах, соответствующих вашим критериям."
	subscribedText = "✅ <b>Вы успешно подписались на рассылку!</b>\n\n" +
		"Вы будете получать уведомления о новых квартирах, соответствующих вашим критериям поиска."
	unsubscribedText   = "❌ <b>Вы отписались от рассылки</b>\n\nВы больше не будете получать уведомления о новых квартирах."
	noSubscriptionText = "ℹ️ У вас нет активной подписки на рассылку."
	activeOfferText    = "✅ <b>У вас активна подписка на рассылку</b>\n\n" +
		"Вы получите уведомление, когда появятся новые квартиры по вашим фильтрам."
	subscribeOfferText = "📬 <b>Не нашли нужную квартиру?</b>\n\n" +
		"Подпишитесь на рассылку, и мы сообщим вам, когда появятся новые квартиры по вашим фильтрам!"

	askIDText       = "🔍 <b>Поиск по ID</b>\n\nВведите ID квартиры:"
	invalidIDText   = "❌ Пожалуйста, введите корректный ID (число)."
	foundText       = "✅ Квартира найдена!"
	staleButtonText = "Это действие больше недоступно. Откройте меню заново."
	accessDenied    = "Доступ запрещён."

	searchingText       = "🔍 Ищу квартиры..."
	searchFirstText     = "Сначала выполните поиск"
	subscribeFailedText = "Не удалось оформить подписку. Попробуйте позже."
	unknownCommandText  = "Неизвестная команда. Используйте /start, чтобы открыть меню."
	checkStartedText    = "🔍 Запускаю проверку новых квартир..."
	checkDisabledText   = "Проверка новых квартир сейчас недоступна."
)

var stagePrompts = map[wizard.Stage]string{
	wizard.StageType:      "Выберите тип жилья (можно несколько):",
	wizard.StageDistrict:  "Выберите район (можно несколько):",
	wizard.StageCondition: "Выберите тип ремонта (можно несколько):",
	wizard.StageArea:      "Выберите площадь (можно несколько диапазонов):",
	wizard.StageRooms:     "Выберите количество комнат (можно несколько):",
	wizard.StagePrice:     "Выберите ценовой диапазон (можно несколько):",
}

var rejectTexts = map[wizard.Stage]string{
	wizard.StageType:      "Выберите вариант или отметьте 'Не важно'",
	wizard.StageDistrict:  "Выберите район или отметьте 'Не важно'",
	wizard.StageCondition: "Выберите состояние или отметьте 'Не важно'",
	wizard.StageArea:      "Выберите диапазон площади или отметьте 'Не важно'",
	wizard.StageRooms:     "Выберите количество комнат или отметьте 'Не важно'",
	wizard.StagePrice:     "Выберите диапазон цены или отметьте 'Не важно'",
}

var numbers = message.NewPrinter(language.English)

// FormatPrice renders a price in dollars with space-separated thousands.
func FormatPrice(price int) string {
	return "$" + strings.ReplaceAll(numbers.Sprintf("%d", price), ",", " ")
}

// FormatCard renders a listing as an HTML message for Telegram.
func FormatCard(l model.Listing) string {
	var b strings.Builder

	rooms := fmt.Sprintf("%d-х комнатная", l.Rooms)
	if l.Rooms >= 5 {
		rooms = "5+ комнатная"
	}
	fmt.Fprintf(&b, "🏙 %s квартира", rooms)
	if l.Address != "" {
		fmt.Fprintf(&b, "\n📍 Адрес: %s", html.EscapeString(l.Address))
	}
	fmt.Fprintf(&b, "\n🆔 ID: %d", l.ID)
	fmt.Fprintf(&b, "\n🏢 Тип: %s", html.EscapeString(l.Type))
	fmt.Fprintf(&b, "\n🛠 Ремонт: %s", html.EscapeString(l.Condition))
	if l.Orientation != "" {
		fmt.Fprintf(&b, "\n📍 Ориентир: %s", html.EscapeString(l.Orientation))
	}
	fmt.Fprintf(&b, "\n📌 Район: %s", html.EscapeString(l.District))
	fmt.Fprintf(&b, "\n🚪 Комнаты: %d", l.Rooms)
	fmt.Fprintf(&b, "\n🏗 Этаж: %d из %d", l.Floor, l.FloorsTotal)
	fmt.Fprintf(&b, "\n📏 Площадь: %s м²", strconv.FormatFloat(l.Area, 'f', -1, 64))
	fmt.Fprintf(&b, "\n💰 Цена: %s", FormatPrice(l.Price))
	if l.Description != "" {
		fmt.Fprintf(&b, "\n\n📝 %s", html.EscapeString(l.Description))
	}
	b.WriteString("\n\n💬 Заинтересовало? Свяжитесь:")
	fmt.Fprintf(&b, "\n📞 %s, %s", html.EscapeString(l.ContactPhone), html.EscapeString(l.ContactName))
	return b.String()
}

func stageText(s wizard.Stage) string {
	return searchHeader + stagePrompts[s]
}

func pageText(page, totalPages, count int) string {
	return fmt.Sprintf("📄 Страница %d из %d | Найдено: %d", page, totalPages, count)
}

func checkDoneText(newListings, sent int) string {
	return fmt.Sprintf("✅ Проверка завершена!\n\nНовых квартир: %d\nОтправлено уведомлений: %d", newListings, sent)
}

func checkFailedText(err error) string {
	return "❌ Ошибка при проверке: " + html.EscapeString(err.Error())
}

func listingNotFoundText(id int64) string {
	return fmt.Sprintf("😔 Квартира с ID %d не найдена.\n\nПопробуйте ввести другой ID.", id)
}
