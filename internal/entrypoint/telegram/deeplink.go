package telegram

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var ErrInvalidDeepLink = errors.New("invalid deep link")

const (
	actionTransfer = "transfer"
	actionAccept   = "accept"
)

// deepLinkArgs lists the argument names each action understands, with the
// names the decoder treats as required.
var deepLinkArgs = map[string]map[string]bool{
	actionTransfer: {"address": true, "amount": true, "comment": false},
	actionAccept:   {"id": true},
}

// DeepLinkAction is a decoded start parameter.
type DeepLinkAction struct {
	Key  string
	Args map[string]string
}

// ParseDeepLink decodes `action-name_value-name_value...`. Telegram start
// payloads may only carry [A-Za-z0-9_-], and TON addresses are base64url,
// so '-' and '_' legitimately appear inside values. The canonical grammar
// is therefore keyed on the known argument names: a segment opens a new
// argument only when its prefix up to the first '_' is an argument name of
// the action; anything else continues the previous value with its '-'
// restored. A bare remainder after `accept` is folded into `id` for
// compatibility with links minted before the pair form.
func ParseDeepLink(payload string) (DeepLinkAction, error) {
	parts := strings.Split(payload, "-")
	key := parts[0]

	known, ok := deepLinkArgs[key]
	if !ok {
		return DeepLinkAction{}, fmt.Errorf("%w: unknown action %q", ErrInvalidDeepLink, key)
	}

	args := make(map[string]string)
	last := ""
	for _, segment := range parts[1:] {
		name, value, found := strings.Cut(segment, "_")
		if _, knownName := known[name]; found && knownName {
			args[name] = value
			last = name
			continue
		}

		switch {
		case last != "":
			args[last] += "-" + segment
		case key == actionAccept:
			args["id"] = segment
			last = "id"
		default:
			return DeepLinkAction{}, fmt.Errorf("%w: malformed pair %q", ErrInvalidDeepLink, segment)
		}
	}

	for name, required := range known {
		if required && args[name] == "" {
			return DeepLinkAction{}, fmt.Errorf("%w: missing %s", ErrInvalidDeepLink, name)
		}
	}

	return DeepLinkAction{Key: key, Args: args}, nil
}

// EncodeTransfer builds the start payload for a transfer link. The amount
// is in nanotons.
func EncodeTransfer(address string, amount *big.Int, comment string) string {
	payload := actionTransfer + "-address_" + address + "-amount_" + amount.String()
	if comment != "" {
		payload += "-comment_" + comment
	}
	return payload
}

// EncodeAccept builds the start payload for a cheque claim link.
func EncodeAccept(chequeID string) string {
	return actionAccept + "-id_" + chequeID
}

// StartLink renders a t.me deep link for a payload.
func StartLink(botUsername, payload string) string {
	return "https://t.me/" + botUsername + "?start=" + payload
}
