package user

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	salt    = []byte("darasa.core.user.invite_token")
	NowFunc = time.Now // mockable

	// errors
	ErrInvalidToken = errors.New("invalid invitation token")
	ErrTokenExpired = errors.New("invitation has expired")
)

// MakeToken generates a signed invitation acceptance token for a given Invite.
// The token embeds the invite ID so the server can look the invitation back up
// from the token alone.
func MakeToken(inv Invite, secret []byte) (string, error) {
	uid := base64.RawURLEncoding.EncodeToString([]byte(inv.ID))
	signed, err := makeTokenWithTimestamp(inv, numDaysSince2001(NowFunc()), secret)
	if err != nil {
		return "", err
	}
	return uid + "." + signed, nil
}

// ParseTokenUID extracts the invite ID an invitation token names.
func ParseTokenUID(token string) (string, error) {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) < 2 {
		return "", ErrInvalidToken
	}
	idBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", ErrInvalidToken
	}
	return string(idBytes), nil
}

// verifyToken checks that an invitation token for a given Invite is genuine
// and has not outlived the invitation timeout.
func verifyToken(inv Invite, token string, secret []byte, timeout time.Duration) error {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) < 2 {
		return ErrInvalidToken
	}
	signed := parts[1]

	sigParts := strings.SplitN(signed, "-", 2)
	if len(sigParts) < 2 {
		return ErrInvalidToken
	}
	data, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(sigParts[0])
	if err != nil {
		return ErrInvalidToken
	}
	ts, err := strconv.Atoi(string(data))
	if err != nil {
		return ErrInvalidToken
	}

	// check that token has not been tampered with
	newToken, err := makeTokenWithTimestamp(inv, ts, secret)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(newToken), []byte(signed)) == 0 {
		return ErrInvalidToken
	}

	// check that the timestamp is within limit
	if (numDaysSince2001(NowFunc()) - ts) > int(timeout/(24*time.Hour)) {
		return ErrTokenExpired
	}
	return nil
}

func makeTokenWithTimestamp(inv Invite, ts int, secret []byte) (string, error) {
	tsB32 := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString([]byte(strconv.Itoa(ts)))
	sig, err := sign(hashValue(inv, ts), secret)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s", tsB32, sig), nil
}

func numDaysSince2001(t time.Time) int {
	ref := time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)
	return int(math.Ceil(t.Sub(ref).Hours() / 24))
}

func sign(val, secret []byte) (string, error) {
	key := sha256.Sum256(append(salt, secret...))
	h := hmac.New(sha256.New, key[:])
	if _, err := h.Write(val); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil)), nil
}

func hashValue(inv Invite, ts int) []byte {
	var val bytes.Buffer
	val.WriteString(inv.ID)
	val.WriteString(inv.Email)
	val.WriteString(inv.Role)
	val.WriteString(strconv.Itoa(ts))
	return val.Bytes()
}
