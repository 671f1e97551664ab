package mux

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Webhook verification failures.
var (
	ErrSignatureMissing = errors.New("webhook signature header missing")
	ErrSignatureFormat  = errors.New("webhook signature header malformed")
	ErrSignatureExpired = errors.New("webhook signature timestamp outside tolerance")
	ErrSignatureInvalid = errors.New("webhook signature mismatch")
)

// DefaultSignatureTolerance bounds how stale a webhook timestamp may be.
const DefaultSignatureTolerance = 5 * time.Minute

// VerifyWebhookSignature checks the `mux-signature: t=<unix>,v1=<hex>`
// header against the raw request body. The signed message is
// "{t}.{rawBody}" and the comparison is constant-time.
func VerifyWebhookSignature(payload []byte, header, secret string, tolerance time.Duration) error {
	return verifyAt(payload, header, secret, tolerance, time.Now())
}

func verifyAt(payload []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	if strings.TrimSpace(header) == "" {
		return ErrSignatureMissing
	}
	if tolerance <= 0 {
		tolerance = DefaultSignatureTolerance
	}

	timestamp, signature, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	sent := time.Unix(timestamp, 0)
	if now.Sub(sent) > tolerance || sent.Sub(now) > tolerance {
		return ErrSignatureExpired
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignatureInvalid
	}

	return nil
}

func parseSignatureHeader(header string) (int64, string, error) {
	var timestampRaw, signature string
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		switch {
		case strings.HasPrefix(part, "t="):
			timestampRaw = strings.TrimPrefix(part, "t=")
		case strings.HasPrefix(part, "v1="):
			signature = strings.TrimPrefix(part, "v1=")
		}
	}

	if timestampRaw == "" || signature == "" {
		return 0, "", ErrSignatureFormat
	}

	timestamp, err := strconv.ParseInt(timestampRaw, 10, 64)
	if err != nil {
		return 0, "", ErrSignatureFormat
	}

	return timestamp, strings.ToLower(signature), nil
}
