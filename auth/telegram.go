package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strings"
)

var (
	ErrNoToken          = errors.New("bot token is not configured")
	ErrMissingHash      = errors.New("init data has no hash field")
	ErrInvalidSignature = errors.New("init data signature mismatch")
)

// BypassTelegramID is the fixed identity returned when validation is
// explicitly disabled for dev environments.
const BypassTelegramID = "test_user"

// Validator checks the signature of Telegram Mini App init data. The digest is
// a two-stage HMAC-SHA256: the secret key is HMAC("WebAppData", botToken), and
// the supplied hash must match HMAC(secret, dataCheckString) where the data
// check string is the sorted k=v pairs (hash excluded) joined by newlines.
type Validator struct {
	botToken string
	bypass   bool
}

func NewValidator(botToken string, devBypass bool) *Validator {
	return &Validator{botToken: botToken, bypass: devBypass}
}

// Validate verifies initData and returns the telegram user id embedded in it.
// An empty id with nil error means the payload was authentic but carried no
// user; the caller decides whether that is acceptable.
func (v *Validator) Validate(initData string) (string, error) {
	if v.botToken == "" {
		if v.bypass {
			return BypassTelegramID, nil
		}
		return "", ErrNoToken
	}

	values, err := url.ParseQuery(initData)
	if err != nil {
		return "", ErrInvalidSignature
	}

	suppliedHash := values.Get("hash")
	if suppliedHash == "" {
		return "", ErrMissingHash
	}
	values.Del("hash")

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+values.Get(k))
	}
	dataCheckString := strings.Join(pairs, "\n")

	secret := hmacSHA256([]byte("WebAppData"), []byte(v.botToken))
	calculated := hmacSHA256(secret, []byte(dataCheckString))

	// Подпись сравнивается в нижнем регистре и за постоянное время
	supplied, err := hex.DecodeString(strings.ToLower(suppliedHash))
	if err != nil || !hmac.Equal(calculated, supplied) {
		return "", ErrInvalidSignature
	}

	return userIDFromPayload(values.Get("user")), nil
}

func userIDFromPayload(raw string) string {
	if raw == "" {
		return ""
	}
	var user struct {
		ID json.Number `json:"id"`
	}
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return ""
	}
	return user.ID.String()
}

func hmacSHA256(key, message []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return mac.Sum(nil)
}
