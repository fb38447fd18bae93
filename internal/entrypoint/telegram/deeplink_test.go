package telegram

import (
	"errors"
	"math/big"
	"strings"
	"testing"
)

func TestParseDeepLinkTransfer(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		args    map[string]string
	}{
		{
			name:    "plain",
			payload: "transfer-address_EQAbc123-amount_1000000000",
			args:    map[string]string{"address": "EQAbc123", "amount": "1000000000"},
		},
		{
			name:    "with comment",
			payload: "transfer-address_EQAbc123-amount_5-comment_rent",
			args:    map[string]string{"address": "EQAbc123", "amount": "5", "comment": "rent"},
		},
		{
			name:    "address with base64url dashes",
			payload: "transfer-address_EQAb-c1_23-x-amount_7",
			args:    map[string]string{"address": "EQAb-c1_23-x", "amount": "7"},
		},
		{
			name:    "comment containing a dash",
			payload: "transfer-address_EQAbc-amount_1-comment_happy-birthday",
			args:    map[string]string{"address": "EQAbc", "amount": "1", "comment": "happy-birthday"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, err := ParseDeepLink(tt.payload)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if action.Key != "transfer" {
				t.Errorf("key = %s, want transfer", action.Key)
			}
			for name, want := range tt.args {
				if got := action.Args[name]; got != want {
					t.Errorf("args[%s] = %q, want %q", name, got, want)
				}
			}
		})
	}
}

func TestParseDeepLinkAccept(t *testing.T) {
	action, err := ParseDeepLink("accept-id_deadbeef01")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if action.Key != "accept" || action.Args["id"] != "deadbeef01" {
		t.Errorf("got %+v", action)
	}

	// Links minted before the name_value form carry the ID bare.
	action, err = ParseDeepLink("accept-deadbeef01")
	if err != nil {
		t.Fatalf("parse legacy: %v", err)
	}
	if action.Args["id"] != "deadbeef01" {
		t.Errorf("legacy id = %q, want deadbeef01", action.Args["id"])
	}
}

func TestParseDeepLinkRejects(t *testing.T) {
	payloads := []string{
		"",
		"unknown-id_1",
		"transfer",
		"transfer-address_EQAbc",
		"transfer-amount_5",
		"transfer-bogus_1",
		"accept",
		"accept-id_",
	}
	for _, payload := range payloads {
		if _, err := ParseDeepLink(payload); !errors.Is(err, ErrInvalidDeepLink) {
			t.Errorf("ParseDeepLink(%q) error = %v, want ErrInvalidDeepLink", payload, err)
		}
	}
}

func TestEncodeTransferRoundTrip(t *testing.T) {
	payload := EncodeTransfer("EQAb-c1_23-x", big.NewInt(1_500_000_000), "happy-birthday")

	action, err := ParseDeepLink(payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if action.Args["address"] != "EQAb-c1_23-x" {
		t.Errorf("address = %q", action.Args["address"])
	}
	if action.Args["amount"] != "1500000000" {
		t.Errorf("amount = %q", action.Args["amount"])
	}
	if action.Args["comment"] != "happy-birthday" {
		t.Errorf("comment = %q", action.Args["comment"])
	}

	// No comment, no comment pair.
	payload = EncodeTransfer("EQAbc", big.NewInt(1), "")
	if strings.Contains(payload, "comment") {
		t.Errorf("payload %q carries an empty comment", payload)
	}
}

func TestEncodeAcceptRoundTrip(t *testing.T) {
	payload := EncodeAccept("00112233445566778899aabbccddeeff")
	action, err := ParseDeepLink(payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if action.Args["id"] != "00112233445566778899aabbccddeeff" {
		t.Errorf("id = %q", action.Args["id"])
	}
}

func TestStartLink(t *testing.T) {
	link := StartLink("tonpursebot", "accept-id_ff")
	if link != "https://t.me/tonpursebot?start=accept-id_ff" {
		t.Errorf("link = %q", link)
	}
}
