package telegram

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/xssnick/tonutils-go/tlb"

	"tonpurse/internal/entity"
	"tonpurse/internal/ton"
)

// Freshness windows for login-gated actions.
const (
	sendFreshness     = time.Minute
	wordlistFreshness = 20 * time.Second
)

var defaultSettings = entity.Settings{Language: "English", Currency: "USD"}

// effectivePassword scopes the derivation input to the user, so equal
// passwords from different users yield distinct wallets.
func effectivePassword(password string, userID int64) string {
	return fmt.Sprintf("%s %d", password, userID)
}

// start handles the /start command, with an optional deep-link payload.
func (b *Bot) start(ctx context.Context, sess *entity.Session, payload string) (entity.State, error) {
	if payload != "" {
		sess.DeepLink = payload
		if sess.Wallet != nil {
			return b.deeplink(ctx, sess, "")
		}
		sess.Redirect = "deeplink"
	}

	b.resetPrompt(sess)

	if sess.Credential != nil {
		b.editPrompt(sess, msgLogin, nil)
		return entity.StateCheckPassword, nil
	}

	sess.Settings = defaultSettings
	b.editPrompt(sess, msgWelcome, nil)
	return entity.StateNewPassword, nil
}

func (b *Bot) newPassword(ctx context.Context, sess *entity.Session, input string) (entity.State, error) {
	credential, err := entity.NewPasswordCredential(input)
	if err != nil {
		return "", err
	}
	sess.PendingCredential = credential

	b.editPrompt(sess, msgRepeatPassword, nil)
	return entity.StateConfirmPassword, nil
}

func (b *Bot) confirmPassword(ctx context.Context, sess *entity.Session, input string) (entity.State, error) {
	if sess.PendingCredential == nil {
		b.editPrompt(sess, msgWelcome, nil)
		return entity.StateNewPassword, nil
	}

	if !sess.PendingCredential.Verify(input) {
		b.editPrompt(sess, msgPasswordsMismatch, nil)
		return entity.StateNewPassword, nil
	}

	sess.Credential = sess.PendingCredential
	sess.PendingCredential = nil

	wallet, err := ton.DeriveWallet(effectivePassword(input, sess.UserID), b.provider)
	if err != nil {
		return "", err
	}
	if err := wallet.Refresh(ctx); err != nil {
		return "", err
	}

	sess.Wallet = wallet
	sess.Touch()

	return b.afterLogin(ctx, sess)
}

func (b *Bot) checkPassword(ctx context.Context, sess *entity.Session, input string) (entity.State, error) {
	if sess.Credential == nil {
		sess.Settings = defaultSettings
		b.editPrompt(sess, msgWelcome, nil)
		return entity.StateNewPassword, nil
	}

	if !sess.Credential.Verify(input) {
		b.editPrompt(sess, msgWrongPassword, nil)
		return entity.StateCheckPassword, nil
	}

	if sess.Wallet == nil {
		wallet, err := ton.DeriveWallet(effectivePassword(input, sess.UserID), b.provider)
		if err != nil {
			return "", err
		}
		sess.Wallet = wallet
	}
	if err := sess.Wallet.Refresh(ctx); err != nil {
		return "", err
	}

	sess.Touch()

	return b.afterLogin(ctx, sess)
}

// afterLogin resumes the action that required the login, or falls back to
// the menu.
func (b *Bot) afterLogin(ctx context.Context, sess *entity.Session) (entity.State, error) {
	if sess.Redirect != "" {
		target := sess.Redirect
		sess.Redirect = ""
		if handler, ok := b.handlers[target]; ok {
			return handler(ctx, sess, "")
		}
	}
	return b.showMenu(sess)
}

// requireLogin parks the intended action and routes through the password
// gate. A session without a credential is a brand-new user.
func (b *Bot) requireLogin(sess *entity.Session, redirect string) (entity.State, error) {
	sess.Redirect = redirect

	if sess.Credential == nil {
		sess.Settings = defaultSettings
		b.editPrompt(sess, msgWelcome, nil)
		return entity.StateNewPassword, nil
	}

	b.editPrompt(sess, msgLogin, nil)
	return entity.StateCheckPassword, nil
}

func (b *Bot) showMenu(sess *entity.Session) (entity.State, error) {
	b.editPrompt(sess, fmt.Sprintf(msgMenu, sess.Wallet.Balance().String()), menuKeyboard())
	return entity.StateMenu, nil
}

func (b *Bot) menu(ctx context.Context, sess *entity.Session, _ string) (entity.State, error) {
	if sess.Wallet == nil {
		return b.requireLogin(sess, "")
	}
	return b.showMenu(sess)
}

func (b *Bot) back(ctx context.Context, sess *entity.Session, _ string) (entity.State, error) {
	if sess.Wallet == nil {
		return b.requireLogin(sess, "")
	}
	return b.showMenu(sess)
}

func (b *Bot) refresh(ctx context.Context, sess *entity.Session, _ string) (entity.State, error) {
	if sess.Wallet == nil {
		return b.requireLogin(sess, "")
	}
	if err := sess.Wallet.Refresh(ctx); err != nil {
		return "", err
	}
	return b.showMenu(sess)
}

func (b *Bot) receive(ctx context.Context, sess *entity.Session, _ string) (entity.State, error) {
	if sess.Wallet == nil {
		return b.requireLogin(sess, "")
	}
	b.editPrompt(sess, fmt.Sprintf(msgDeposit, sess.Wallet.UnbounceableAddress()), backKeyboard())
	return entity.StateMenu, nil
}

func (b *Bot) send(ctx context.Context, sess *entity.Session, _ string) (entity.State, error) {
	if sess.Wallet == nil {
		return b.requireLogin(sess, "send")
	}
	b.editPrompt(sess, msgSendAddress, sendAddressKeyboard())
	return entity.StateSendAddress, nil
}

func (b *Bot) sendAddress(ctx context.Context, sess *entity.Session, input string) (entity.State, error) {
	if sess.Wallet == nil {
		return b.requireLogin(sess, "send")
	}

	input = strings.TrimSpace(input)
	if _, err := b.transfers.PrepareSend(input); err != nil {
		if errors.Is(err, entity.ErrInvalidAddress) {
			b.editPrompt(sess, msgInvalidAddress, cancelSendKeyboard())
			return entity.StateSendAddress, nil
		}
		return "", err
	}

	sess.SendAddress = input
	return b.promptAmount(sess)
}

func (b *Bot) promptAmount(sess *entity.Session) (entity.State, error) {
	min := b.transfers.Min().String()
	max := b.transfers.Max(sess.Wallet.Balance()).String()
	fee := b.transfers.Fee().String()

	b.editPrompt(sess, fmt.Sprintf(msgSendAmount, min, max, fee), amountKeyboard(min, max))
	return entity.StateSendAmount, nil
}

func (b *Bot) sendAmount(ctx context.Context, sess *entity.Session, input string) (entity.State, error) {
	if sess.Wallet == nil {
		return b.requireLogin(sess, "send")
	}

	amount, err := tlb.FromTON(strings.TrimSpace(input))
	if err != nil {
		b.editPrompt(sess, msgInvalidAmount, cancelSendKeyboard())
		return entity.StateSendAmount, nil
	}

	return b.confirmScreen(sess, amount)
}

func (b *Bot) minSend(ctx context.Context, sess *entity.Session, _ string) (entity.State, error) {
	if sess.Wallet == nil {
		return b.requireLogin(sess, "send")
	}
	return b.confirmScreen(sess, b.transfers.Min())
}

func (b *Bot) maxSend(ctx context.Context, sess *entity.Session, _ string) (entity.State, error) {
	if sess.Wallet == nil {
		return b.requireLogin(sess, "send")
	}
	return b.confirmScreen(sess, b.transfers.Max(sess.Wallet.Balance()))
}

// confirmScreen quotes the transfer against the current balance and shows
// the confirmation prompt.
func (b *Bot) confirmScreen(sess *entity.Session, amount tlb.Coins) (entity.State, error) {
	quote, err := b.transfers.Quote(sess.Wallet.Balance(), amount)
	if err != nil {
		if errors.Is(err, entity.ErrInvalidAmount) {
			b.editPrompt(sess, msgInvalidAmount, cancelSendKeyboard())
			return entity.StateSendAmount, nil
		}
		if errors.Is(err, entity.ErrInsufficientFunds) {
			b.editPrompt(sess, msgInsufficientFunds, cancelSendKeyboard())
			return entity.StateSendAmount, nil
		}
		return "", err
	}

	sess.SendAmount = quote.Amount.String()

	b.editPrompt(sess, fmt.Sprintf(
		msgSendConfirm,
		sess.SendAddress,
		quote.Amount.String(),
		quote.Fee.String(),
		quote.Total.String(),
		quote.BalanceAfter.String(),
	), confirmKeyboard())

	return entity.StateSendConfirm, nil
}

func (b *Bot) sendConfirm(ctx context.Context, sess *entity.Session, _ string) (entity.State, error) {
	if sess.Wallet == nil {
		return b.requireLogin(sess, "send-confirm")
	}
	if !sess.LoggedInWithin(sendFreshness) {
		return b.requireLogin(sess, "send-confirm")
	}

	if sess.SendAddress == "" || sess.SendAmount == "" {
		b.editPrompt(sess, msgInvalidAction, backKeyboard())
		return entity.StateMenu, nil
	}

	to, err := b.transfers.PrepareSend(sess.SendAddress)
	if err != nil {
		b.editPrompt(sess, msgInvalidAction, backKeyboard())
		return entity.StateMenu, nil
	}
	amount, err := tlb.FromTON(sess.SendAmount)
	if err != nil {
		b.editPrompt(sess, msgInvalidAction, backKeyboard())
		return entity.StateMenu, nil
	}

	receipt, err := b.transfers.Execute(ctx, sess.Wallet, to, amount, sess.SendComment)
	if err != nil {
		if errors.Is(err, entity.ErrInsufficientFunds) {
			b.editPrompt(sess, msgInsufficientFunds, cancelSendKeyboard())
			return entity.StateSendAmount, nil
		}
		return "", err
	}

	b.sendMessage(sess.ChatID, fmt.Sprintf(
		msgReceipt,
		receipt.Address,
		receipt.Amount.String(),
		receipt.Fee.String(),
		receipt.Total.String(),
	))

	sess.ClearSendFlow()
	b.resetPrompt(sess)
	return b.showMenu(sess)
}

func (b *Bot) cancelSend(ctx context.Context, sess *entity.Session, _ string) (entity.State, error) {
	if sess.Wallet == nil {
		return b.requireLogin(sess, "")
	}
	sess.ClearSendFlow()
	return b.showMenu(sess)
}

func (b *Bot) settings(ctx context.Context, sess *entity.Session, _ string) (entity.State, error) {
	if sess.Wallet == nil {
		return b.requireLogin(sess, "settings")
	}
	b.editPrompt(sess, msgSettings, settingsKeyboard())
	return entity.StateSettings, nil
}

func (b *Bot) settingsLanguage(ctx context.Context, sess *entity.Session, _ string) (entity.State, error) {
	if sess.Wallet == nil {
		return b.requireLogin(sess, "settings-language")
	}
	b.editPrompt(sess, msgChooseLanguage, languageKeyboard())
	return entity.StateSettingsLang, nil
}

func (b *Bot) settingsCurrency(ctx context.Context, sess *entity.Session, _ string) (entity.State, error) {
	if sess.Wallet == nil {
		return b.requireLogin(sess, "settings-currency")
	}
	b.editPrompt(sess, msgChooseCurrency, currencyKeyboard())
	return entity.StateSettingsCcy, nil
}

func (b *Bot) setLanguage(language string) handlerFunc {
	return func(ctx context.Context, sess *entity.Session, _ string) (entity.State, error) {
		sess.Settings.Language = language
		return b.settings(ctx, sess, "")
	}
}

func (b *Bot) setCurrency(currency string) handlerFunc {
	return func(ctx context.Context, sess *entity.Session, _ string) (entity.State, error) {
		sess.Settings.Currency = currency
		return b.settings(ctx, sess, "")
	}
}

func (b *Bot) wordlist(ctx context.Context, sess *entity.Session, _ string) (entity.State, error) {
	if sess.Wallet == nil {
		return b.requireLogin(sess, "wordlist")
	}
	if !sess.LoggedInWithin(wordlistFreshness) {
		return b.requireLogin(sess, "wordlist")
	}

	words := strings.Join(sess.Wallet.Wordlist, "\n")
	b.editPrompt(sess, "<code>"+words+"</code>", backKeyboard())
	return entity.StateWordlist, nil
}

// deeplink dispatches the parked /start payload. A malformed or unknown
// link never crashes the loop; it reports and falls back to the menu.
func (b *Bot) deeplink(ctx context.Context, sess *entity.Session, _ string) (entity.State, error) {
	payload := sess.DeepLink
	sess.DeepLink = ""

	if sess.Wallet == nil {
		sess.DeepLink = payload
		return b.requireLogin(sess, "deeplink")
	}

	action, err := ParseDeepLink(payload)
	if err != nil {
		b.editPrompt(sess, msgInvalidLink, backKeyboard())
		return entity.StateMenu, nil
	}

	switch action.Key {
	case actionTransfer:
		return b.deeplinkTransfer(sess, action)
	case actionAccept:
		return b.deeplinkAccept(ctx, sess, action)
	}

	b.editPrompt(sess, msgInvalidLink, backKeyboard())
	return entity.StateMenu, nil
}

func (b *Bot) deeplinkTransfer(sess *entity.Session, action DeepLinkAction) (entity.State, error) {
	address := action.Args["address"]
	if _, err := b.transfers.PrepareSend(address); err != nil {
		b.editPrompt(sess, msgInvalidLink, backKeyboard())
		return entity.StateMenu, nil
	}

	nano, ok := new(big.Int).SetString(action.Args["amount"], 10)
	if !ok || nano.Sign() <= 0 {
		b.editPrompt(sess, msgInvalidLink, backKeyboard())
		return entity.StateMenu, nil
	}

	sess.SendAddress = address
	sess.SendComment = action.Args["comment"]
	return b.confirmScreen(sess, tlb.FromNanoTON(nano))
}

func (b *Bot) deeplinkAccept(ctx context.Context, sess *entity.Session, action DeepLinkAction) (entity.State, error) {
	amount, err := b.escrow.Redeem(ctx, action.Args["id"], sess.Wallet)
	switch {
	case errors.Is(err, entity.ErrChequeNotFound):
		b.sendMessage(sess.ChatID, msgChequeGone)
	case errors.Is(err, entity.ErrInsufficientFunds):
		b.sendMessage(sess.ChatID, msgChequeUnderfunded)
	case err != nil:
		return "", err
	default:
		b.sendMessage(sess.ChatID, fmt.Sprintf(msgChequeReceived, amount.String()))
	}

	b.resetPrompt(sess)
	return b.showMenu(sess)
}

// invalidAction is the fail-closed path for unknown event identifiers.
func (b *Bot) invalidAction(ctx context.Context, sess *entity.Session, _ string) (entity.State, error) {
	if sess.Wallet == nil {
		return b.requireLogin(sess, "")
	}
	b.editPrompt(sess, msgInvalidAction, backKeyboard())
	return entity.StateMenu, nil
}
