package entity

import (
	"errors"
	"time"

	"tonpurse/internal/ton"
)

var ErrSessionNotFound = errors.New("session not found")

// State is the session's current step in the conversation.
type State string

const (
	StateNewPassword     State = "new-password"
	StateConfirmPassword State = "confirm-password"
	StateCheckPassword   State = "check-password"
	StateMenu            State = "menu"
	StateSendAddress     State = "send-address"
	StateSendAmount      State = "send-amount"
	StateSendConfirm     State = "send-confirm"
	StateSettings        State = "settings"
	StateSettingsLang    State = "settings-language"
	StateSettingsCcy     State = "settings-currency"
	StateWordlist        State = "wordlist-display"
)

type Settings struct {
	Language string `json:"language"`
	Currency string `json:"currency"`
}

// Session holds everything the bot knows about one chat user. The JSON
// subset is what survives a restart; the wallet and its key material are
// rebuilt from the password on the next login.
type Session struct {
	UserID int64 `json:"userID"`
	ChatID int64 `json:"chatID"`

	State State `json:"state"`

	Credential        *PasswordCredential `json:"credential,omitempty"`
	PendingCredential *PasswordCredential `json:"pendingCredential,omitempty"`

	Settings    Settings   `json:"settings"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`

	SendAddress string `json:"sendAddress,omitempty"`
	SendAmount  string `json:"sendAmount,omitempty"`
	SendComment string `json:"sendComment,omitempty"`

	// Redirect is the handler key to resume after a successful login.
	Redirect string `json:"redirect,omitempty"`

	// DeepLink is a parked /start payload waiting for the wallet to load.
	DeepLink string `json:"deepLink,omitempty"`

	// PromptMessageID is the message the bot edits in place.
	PromptMessageID int `json:"promptMessageID,omitempty"`

	Wallet *ton.Wallet `json:"-"`
}

// LoggedInWithin reports whether the last successful password check is
// fresher than d.
func (s *Session) LoggedInWithin(d time.Duration) bool {
	if s.LastLoginAt == nil {
		return false
	}
	return time.Since(*s.LastLoginAt) < d
}

func (s *Session) Touch() {
	now := time.Now()
	s.LastLoginAt = &now
}

// ClearSendFlow drops the transient send-flow fields.
func (s *Session) ClearSendFlow() {
	s.SendAddress = ""
	s.SendAmount = ""
	s.SendComment = ""
}
