package telegram

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xssnick/tonutils-go/tlb"

	"tonpurse/internal/entity"
	"tonpurse/internal/ton"
	"tonpurse/internal/usecase"
)

// api is the slice of the Telegram client the bot renders through.
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// handlerFunc takes the session and the event's free-text input (empty on
// button clicks) and returns the session's next state.
type handlerFunc func(ctx context.Context, sess *entity.Session, input string) (entity.State, error)

type Bot struct {
	tg       *tgbotapi.BotAPI
	api      api
	username string

	sessions    *usecase.Sessions
	transfers   *usecase.TransferEngine
	escrow      *usecase.ChequeEscrow
	idempotence *usecase.Idempotence

	provider ton.Provider

	handlers map[string]handlerFunc

	lanes *lanes
}

func New(
	token string,
	provider ton.Provider,
	sessions *usecase.Sessions,
	transfers *usecase.TransferEngine,
	escrow *usecase.ChequeEscrow,
	idempotence *usecase.Idempotence,
) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	b := newBot(botAPI, botAPI.Self.UserName, provider, sessions, transfers, escrow, idempotence)
	b.tg = botAPI
	return b, nil
}

func newBot(
	api api,
	username string,
	provider ton.Provider,
	sessions *usecase.Sessions,
	transfers *usecase.TransferEngine,
	escrow *usecase.ChequeEscrow,
	idempotence *usecase.Idempotence,
) *Bot {
	b := &Bot{
		api:         api,
		username:    username,
		sessions:    sessions,
		transfers:   transfers,
		escrow:      escrow,
		idempotence: idempotence,
		provider:    provider,
		lanes:       newLanes(),
	}
	b.register()
	return b
}

// register builds the single dispatch table. Session states (free-text
// path) and button tokens (callback path) select from the same table; keys
// that are both, like "settings" or "send-confirm", resolve to one handler.
func (b *Bot) register() {
	b.handlers = map[string]handlerFunc{
		"start":    b.start,
		"deeplink": b.deeplink,

		string(entity.StateNewPassword):     b.newPassword,
		string(entity.StateConfirmPassword): b.confirmPassword,
		string(entity.StateCheckPassword):   b.checkPassword,
		string(entity.StateMenu):            b.menu,
		string(entity.StateSendAddress):     b.sendAddress,
		string(entity.StateSendAmount):      b.sendAmount,
		string(entity.StateSendConfirm):     b.sendConfirm,
		string(entity.StateSettings):        b.settings,
		string(entity.StateSettingsLang):    b.settingsLanguage,
		string(entity.StateSettingsCcy):     b.settingsCurrency,
		string(entity.StateWordlist):        b.wordlist,

		"send":        b.send,
		"receive":     b.receive,
		"back":        b.back,
		"refresh":     b.refresh,
		"cancel-send": b.cancelSend,
		"min_send":    b.minSend,
		"max_send":    b.maxSend,
		"wordlist":    b.wordlist,

		"set-language-english": b.setLanguage("English"),
		"set-language-hebrew":  b.setLanguage("Hebrew"),
		"set-currency-usd":     b.setCurrency("USD"),
		"set-currency-ils":     b.setCurrency("ILS"),
	}
}

func (b *Bot) Start(ctx context.Context) {
	config := tgbotapi.NewUpdate(0)
	config.Timeout = 60
	config.AllowedUpdates = []string{"message", "callback_query", "inline_query"}

	updates := b.tg.GetUpdatesChan(config)
	go b.HandleUpdates(ctx, updates)
}

func (b *Bot) HandleUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		if ok, err := b.checkIfFirstHandle(update); err != nil {
			log.Println(err)
			continue
		} else if !ok {
			continue
		}

		update := update
		switch {
		case update.InlineQuery != nil:
			// Inline queries issue cheques against the sender's wallet, so
			// they share the sender's lane with the chat events touching it.
			b.lanes.run(update.InlineQuery.From.ID, func() { b.handleInlineQuery(ctx, update.InlineQuery) })
		case update.Message != nil:
			b.lanes.run(update.Message.Chat.ID, func() { b.handleMessage(ctx, update.Message) })
		case update.CallbackQuery != nil:
			b.lanes.run(update.CallbackQuery.Message.Chat.ID, func() { b.handleCallback(ctx, update.CallbackQuery) })
		}
	}
}

func (b *Bot) checkIfFirstHandle(update tgbotapi.Update) (bool, error) {
	id := "telegram"
	if update.Message != nil {
		id += strconv.FormatInt(update.Message.Chat.ID, 10) + strconv.Itoa(update.Message.MessageID)
	} else if update.CallbackQuery != nil {
		id += strconv.FormatInt(update.CallbackQuery.Message.Chat.ID, 10) + update.CallbackQuery.ID
	} else if update.InlineQuery != nil {
		id += "inline" + update.InlineQuery.ID
	}
	return b.idempotence.Execute(id)
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	sess, err := b.sessions.Load(message.From.ID)
	if err != nil {
		log.Printf("load session %d: %v", message.From.ID, err)
		return
	}
	sess.ChatID = message.Chat.ID

	// The chat must never retain passwords; every user message goes.
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(message.Chat.ID, message.MessageID)); err != nil {
		log.Printf("delete message: %v", err)
	}

	if message.IsCommand() {
		if message.Command() != "start" {
			b.dispatch(ctx, sess, "", "")
			return
		}
		b.dispatch(ctx, sess, "start", message.CommandArguments())
		return
	}

	key := string(sess.State)
	if key == "" {
		key = "start"
	}
	b.dispatch(ctx, sess, key, message.Text)
}

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	sess, err := b.sessions.Load(query.From.ID)
	if err != nil {
		log.Printf("load session %d: %v", query.From.ID, err)
		return
	}
	sess.ChatID = query.Message.Chat.ID
	if sess.PromptMessageID == 0 {
		sess.PromptMessageID = query.Message.MessageID
	}

	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		log.Printf("answer callback: %v", err)
	}

	b.dispatch(ctx, sess, query.Data, "")
}

// handleInlineQuery turns an amount typed at the bot in any chat into a
// claimable cheque offer.
func (b *Bot) handleInlineQuery(ctx context.Context, query *tgbotapi.InlineQuery) {
	answer := tgbotapi.InlineConfig{
		InlineQueryID: query.ID,
		IsPersonal:    true,
		CacheTime:     0,
	}
	defer func() {
		if _, err := b.api.Request(answer); err != nil {
			log.Printf("answer inline query: %v", err)
		}
	}()

	sess, err := b.sessions.Load(query.From.ID)
	if err != nil || sess.Wallet == nil {
		return
	}

	amount, err := tlb.FromTON(strings.TrimSpace(query.Query))
	if err != nil {
		return
	}

	cheque, err := b.escrow.Issue(ctx, sess.Wallet, amount)
	if err != nil {
		log.Printf("issue cheque for %d: %v", query.From.ID, err)
		return
	}

	link := StartLink(b.username, EncodeAccept(cheque.ID))
	article := tgbotapi.NewInlineQueryResultArticle(
		cheque.ID,
		"Send "+amount.String()+" TON via cheque",
		fmt.Sprintf(msgChequeOffer, amount.String(), link),
	)
	article.Description = "The first to open the link claims the amount"
	answer.Results = []interface{}{article}
}

// dispatch resolves the handler for an event identifier, runs it and
// persists the declared next state. Unknown identifiers fail closed; a
// handler error leaves the flow where it is so the user may retry.
func (b *Bot) dispatch(ctx context.Context, sess *entity.Session, key, input string) {
	handler, ok := b.handlers[key]
	if !ok {
		handler = b.invalidAction
	}

	next, err := handler(ctx, sess, input)
	if err != nil {
		log.Printf("handler %q for user %d: %v", key, sess.UserID, err)
		b.editPrompt(sess, msgOperationFailed, backKeyboard())
		next = sess.State
		if next == "" {
			next = entity.StateMenu
		}
	}
	sess.State = next

	if err := b.sessions.Save(sess); err != nil {
		log.Printf("save session %d: %v", sess.UserID, err)
	}
}

// editPrompt re-renders the session's prompt message in place, falling
// back to a fresh message when there is nothing to edit.
func (b *Bot) editPrompt(sess *entity.Session, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	if sess.PromptMessageID == 0 {
		b.sendPrompt(sess, text, markup)
		return
	}

	edit := tgbotapi.NewEditMessageText(sess.ChatID, sess.PromptMessageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.ReplyMarkup = markup

	if _, err := b.api.Send(edit); err != nil {
		if strings.Contains(err.Error(), "message is not modified") {
			return
		}
		b.sendPrompt(sess, text, markup)
	}
}

func (b *Bot) sendPrompt(sess *entity.Session, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(sess.ChatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		msg.ReplyMarkup = *markup
	}

	sent, err := b.api.Send(msg)
	if err != nil {
		log.Printf("send prompt: %v", err)
		return
	}
	sess.PromptMessageID = sent.MessageID
}

// resetPrompt forgets the current prompt so the next render starts a new
// message at the bottom of the chat.
func (b *Bot) resetPrompt(sess *entity.Session) {
	if sess.PromptMessageID == 0 {
		return
	}
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(sess.ChatID, sess.PromptMessageID)); err != nil {
		log.Printf("delete prompt: %v", err)
	}
	sess.PromptMessageID = 0
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("send message: %v", err)
	}
}

// lanes runs work concurrently across chats while keeping each chat's
// events in arrival order.
type lanes struct {
	mu    sync.Mutex
	queue map[int64]chan func()
}

func newLanes() *lanes {
	return &lanes{queue: make(map[int64]chan func())}
}

func (l *lanes) run(chatID int64, fn func()) {
	l.mu.Lock()
	lane, ok := l.queue[chatID]
	if !ok {
		lane = make(chan func(), 16)
		l.queue[chatID] = lane
		go func() {
			for fn := range lane {
				fn()
			}
		}()
	}
	l.mu.Unlock()

	lane <- fn
}
