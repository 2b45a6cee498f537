package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"

	"incidesk/core/utils"
)

const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	saltLen      = 16
)

type PasswordHash struct {
	Hash string
	Salt string
}

// HashPassword derives an argon2id hash of password with a fresh random
// salt. The pepper is a deployment-wide secret mixed into the input.
func HashPassword(password, pepper string) (PasswordHash, error) {
	saltBytes, err := utils.RandBytes(saltLen)
	if err != nil {
		return PasswordHash{}, err
	}
	key := argon2.IDKey([]byte(password+pepper), saltBytes, argonTime, argonMemory, argonThreads, argonKeyLen)
	return PasswordHash{
		Hash: base64.RawStdEncoding.EncodeToString(key),
		Salt: base64.RawStdEncoding.EncodeToString(saltBytes),
	}, nil
}

func MustHashPassword(password, pepper string) PasswordHash {
	ph, err := HashPassword(password, pepper)
	if err != nil {
		panic(fmt.Sprintf("hash password: %v", err))
	}
	return ph
}

// VerifyPassword recomputes the hash for the candidate password and
// compares it in constant time.
func VerifyPassword(password, pepper string, stored PasswordHash) bool {
	saltBytes, err := base64.RawStdEncoding.DecodeString(stored.Salt)
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(stored.Hash)
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(password+pepper), saltBytes, argonTime, argonMemory, argonThreads, argonKeyLen)
	return subtle.ConstantTimeCompare(got, want) == 1
}
