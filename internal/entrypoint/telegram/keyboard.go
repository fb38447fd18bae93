package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func btn(text, data string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, data)
}

func menuKeyboard() *tgbotapi.InlineKeyboardMarkup {
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(btn("➡️ Send", "send"), btn("➕ Receive", "receive")),
		tgbotapi.NewInlineKeyboardRow(btn("🔄 Refresh", "refresh")),
		tgbotapi.NewInlineKeyboardRow(btn("⚙️ Settings", "settings")),
	)
	return &markup
}

func backKeyboard() *tgbotapi.InlineKeyboardMarkup {
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(btn("< Back", "back")),
	)
	return &markup
}

func cancelSendKeyboard() *tgbotapi.InlineKeyboardMarkup {
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(btn("Cancel", "cancel-send")),
	)
	return &markup
}

func sendAddressKeyboard() *tgbotapi.InlineKeyboardMarkup {
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonSwitch("Send to Contact", " ")),
		tgbotapi.NewInlineKeyboardRow(btn("Cancel", "cancel-send")),
	)
	return &markup
}

func amountKeyboard(min, max string) *tgbotapi.InlineKeyboardMarkup {
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(btn("Min: "+min, "min_send"), btn("Max: "+max, "max_send")),
		tgbotapi.NewInlineKeyboardRow(btn("Cancel", "cancel-send")),
	)
	return &markup
}

func confirmKeyboard() *tgbotapi.InlineKeyboardMarkup {
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(btn("✅Yes", "send-confirm"), btn("❌No", "cancel-send")),
	)
	return &markup
}

func settingsKeyboard() *tgbotapi.InlineKeyboardMarkup {
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(btn("Change language", "settings-language")),
		tgbotapi.NewInlineKeyboardRow(btn("Change local currency", "settings-currency")),
		tgbotapi.NewInlineKeyboardRow(btn("Display 24 words", "wordlist")),
		tgbotapi.NewInlineKeyboardRow(btn("< Back", "back")),
	)
	return &markup
}

func languageKeyboard() *tgbotapi.InlineKeyboardMarkup {
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			btn("🇺🇸 English", "set-language-english"),
			btn("🇮🇱 Hebrew", "set-language-hebrew"),
		),
		tgbotapi.NewInlineKeyboardRow(btn("< Back", "settings")),
	)
	return &markup
}

func currencyKeyboard() *tgbotapi.InlineKeyboardMarkup {
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			btn("USD", "set-currency-usd"),
			btn("ILS", "set-currency-ils"),
		),
		tgbotapi.NewInlineKeyboardRow(btn("< Back", "settings")),
	)
	return &markup
}
