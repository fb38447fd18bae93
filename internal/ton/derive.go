package ton

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/tyler-smith/go-bip39/wordlists"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
)

// passwordSalt only domain-separates the derivation; secrecy comes from
// the password itself. Changing it or any other derivation constant
// orphans every wallet derived so far.
const passwordSalt = "AHS6#$DJS66skaaa"

const (
	wordCount = 24

	seedIters     = 100000
	checksumIters = seedIters / 256
)

// PasswordToWordlist deterministically maps a password to a valid 24-word
// TON mnemonic. Candidate wordlists are drawn from an HKDF-SHA512 stream
// keyed by the password; each word is two stream bytes reduced mod 2048
// (exact, since 2048 divides 65536). The first candidate that passes the
// mnemonic checksum wins. On average one candidate in 256 is valid, so a
// fresh expansion round is keyed per attempt to keep the stream unbounded.
func PasswordToWordlist(password string) ([]string, error) {
	prk := hkdf.Extract(sha512.New, []byte(password), []byte(passwordSalt))

	info := make([]byte, 0, 24)
	buf := make([]byte, 2)
	for round := uint32(0); ; round++ {
		info = append(info[:0], "wordlist v1/"...)
		info = binary.BigEndian.AppendUint32(info, round)
		stream := hkdf.Expand(sha512.New, prk, info)

		words := make([]string, wordCount)
		for i := range words {
			if _, err := io.ReadFull(stream, buf); err != nil {
				return nil, fmt.Errorf("read derivation stream: %w", err)
			}
			words[i] = wordlists.English[binary.BigEndian.Uint16(buf)%2048]
		}

		if MnemonicValid(words) {
			return words, nil
		}
	}
}

// MnemonicValid implements the standard TON mnemonic checksum: the first
// byte of a single-round PBKDF2 expansion of the phrase entropy must be
// zero.
func MnemonicValid(words []string) bool {
	if len(words) != wordCount {
		return false
	}
	check := pbkdf2.Key(mnemonicEntropy(words), []byte("TON fast seed version"), checksumIters, 64, sha512.New)
	return check[0] == 0
}

// WordlistToKey derives the wallet's ed25519 key pair from a mnemonic.
func WordlistToKey(words []string) (ed25519.PrivateKey, ed25519.PublicKey) {
	seed := pbkdf2.Key(mnemonicEntropy(words), []byte("TON default seed"), seedIters, 64, sha512.New)
	priv := ed25519.NewKeyFromSeed(seed[:32])
	return priv, priv.Public().(ed25519.PublicKey)
}

func mnemonicEntropy(words []string) []byte {
	mac := hmac.New(sha512.New, []byte(strings.Join(words, " ")))
	return mac.Sum(nil)
}
