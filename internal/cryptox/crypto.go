// Package cryptox holds the hashing helpers used for trustee verification
// codes.
package cryptox

import (
	"crypto/subtle"

	"github.com/dmitrijs2005/legacylink/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	// CodeBytes is the amount of entropy in a verification code.
	CodeBytes = 16
	// SaltBytes is the salt length used when hashing a code.
	SaltBytes = 16
	keyLen    = 32
)

// DeriveKey stretches secret with argon2id.
func DeriveKey(secret []byte, salt []byte) []byte {
	return argon2.IDKey(secret, salt, 1, 64*1024, 4, keyLen)
}

// NewVerificationCode returns a fresh random code, its salt and the hash to be
// stored. Only the hash and salt are persisted; the code goes to the trustee.
func NewVerificationCode() (code string, salt []byte, hash []byte, err error) {
	code, err = common.MakeRandHexString(CodeBytes)
	if err != nil {
		return "", nil, nil, err
	}
	salt = common.GenerateRandByteArray(SaltBytes)
	return code, salt, HashVerificationCode(code, salt), nil
}

// HashVerificationCode hashes a code with the given salt.
func HashVerificationCode(code string, salt []byte) []byte {
	return DeriveKey([]byte(code), salt)
}

// CheckVerificationCode reports whether code matches the stored hash.
func CheckVerificationCode(code string, salt, hash []byte) bool {
	if len(hash) == 0 || len(salt) == 0 {
		return false
	}
	got := HashVerificationCode(code, salt)
	defer common.WipeByteArray(got)
	return subtle.ConstantTimeCompare(got, hash) == 1
}
