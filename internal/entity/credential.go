package entity

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	credentialSaltSize  = 16
	credentialHashSize  = 32
	credentialHashIters = 10000
)

// PasswordCredential is the only form in which a password is ever stored.
type PasswordCredential struct {
	Hash string `json:"hash"`
	Salt string `json:"salt"`
}

func NewPasswordCredential(password string) (*PasswordCredential, error) {
	salt := make([]byte, credentialSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	hash := pbkdf2.Key([]byte(password), salt, credentialHashIters, credentialHashSize, sha512.New)

	return &PasswordCredential{
		Hash: hex.EncodeToString(hash),
		Salt: hex.EncodeToString(salt),
	}, nil
}

func (c *PasswordCredential) Verify(password string) bool {
	salt, err := hex.DecodeString(c.Salt)
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(c.Hash)
	if err != nil {
		return false
	}

	got := pbkdf2.Key([]byte(password), salt, credentialHashIters, credentialHashSize, sha512.New)

	return subtle.ConstantTimeCompare(got, want) == 1
}
