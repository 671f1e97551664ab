package mux

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func signPayload(t *testing.T, secret string, timestamp int64, payload []byte) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyWebhookSignatureValid(t *testing.T) {
	payload := []byte(`{"type":"video.asset.ready","data":{"id":"asset-1"}}`)
	now := time.Now()
	header := signPayload(t, "whsec", now.Unix(), payload)

	require.NoError(t, verifyAt(payload, header, "whsec", DefaultSignatureTolerance, now))
}

func TestVerifyWebhookSignatureWrongSecret(t *testing.T) {
	payload := []byte(`{}`)
	now := time.Now()
	header := signPayload(t, "whsec", now.Unix(), payload)

	err := verifyAt(payload, header, "other-secret", DefaultSignatureTolerance, now)
	require.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerifyWebhookSignatureTamperedBody(t *testing.T) {
	now := time.Now()
	header := signPayload(t, "whsec", now.Unix(), []byte(`{"a":1}`))

	err := verifyAt([]byte(`{"a":2}`), header, "whsec", DefaultSignatureTolerance, now)
	require.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerifyWebhookSignatureStaleTimestamp(t *testing.T) {
	payload := []byte(`{}`)
	now := time.Now()
	header := signPayload(t, "whsec", now.Add(-10*time.Minute).Unix(), payload)

	err := verifyAt(payload, header, "whsec", DefaultSignatureTolerance, now)
	require.ErrorIs(t, err, ErrSignatureExpired)
}

func TestVerifyWebhookSignatureMalformedHeader(t *testing.T) {
	require.ErrorIs(t, VerifyWebhookSignature([]byte(`{}`), "", "whsec", 0), ErrSignatureMissing)
	require.ErrorIs(t, VerifyWebhookSignature([]byte(`{}`), "v1=abc", "whsec", 0), ErrSignatureFormat)
	require.ErrorIs(t, VerifyWebhookSignature([]byte(`{}`), "t=notanumber,v1=abc", "whsec", 0), ErrSignatureFormat)
}
