package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rohits-web03/inkwell/internal/utils"
)

const stateNonceBytes = 16

var errMalformedState = errors.New("malformed oauth state")

// oauthState is the value carried through Google sign-in: a nonce that the
// callback matches against the state cookie, and the time it was issued.
// On the wire it is "<nonce>.<base64url({"iat":unix})>".
type oauthState struct {
	Nonce    string
	IssuedAt time.Time
}

type statePayload struct {
	IssuedAt int64 `json:"iat"`
}

func newOAuthState(now time.Time) (oauthState, error) {
	nonce, err := utils.RandomString(stateNonceBytes)
	if err != nil {
		return oauthState{}, fmt.Errorf("oauth state nonce: %w", err)
	}
	return oauthState{Nonce: nonce, IssuedAt: now.Truncate(time.Second)}, nil
}

func (s oauthState) String() string {
	payload, _ := json.Marshal(statePayload{IssuedAt: s.IssuedAt.Unix()})
	return s.Nonce + "." + base64.RawURLEncoding.EncodeToString(payload)
}

// expired reports whether s was issued more than stateMaxAge before now, or
// claims to be issued in the future beyond a minute of clock skew.
func (s oauthState) expired(now time.Time) bool {
	age := now.Sub(s.IssuedAt)
	return age > stateMaxAge || age < -time.Minute
}

func parseOAuthState(raw string) (oauthState, error) {
	nonce, encoded, ok := strings.Cut(raw, ".")
	if !ok || nonce == "" || encoded == "" {
		return oauthState{}, errMalformedState
	}
	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return oauthState{}, fmt.Errorf("%w: %v", errMalformedState, err)
	}
	var p statePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return oauthState{}, fmt.Errorf("%w: %v", errMalformedState, err)
	}
	if p.IssuedAt <= 0 {
		return oauthState{}, fmt.Errorf("%w: missing iat", errMalformedState)
	}
	return oauthState{Nonce: nonce, IssuedAt: time.Unix(p.IssuedAt, 0)}, nil
}
