package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// DefaultSignatureTolerance bounds how old a signed webhook timestamp
// may be before the delivery is rejected as a possible replay.
const DefaultSignatureTolerance = 5 * time.Minute

// VerifyWebhookSignature checks a gateway signature header of the form
// "t=<unix>,v1=<hex hmac>" against the shared webhook secret. The HMAC
// is SHA256 over "<t>.<payload>". Verification fails closed: empty
// header, empty secret, malformed parts and stale timestamps all
// return false.
func VerifyWebhookSignature(payload []byte, signatureHeader, webhookSecret string, now time.Time, tolerance time.Duration) bool {
	header := strings.TrimSpace(signatureHeader)
	secret := strings.TrimSpace(webhookSecret)
	if header == "" || secret == "" {
		return false
	}

	timestamp, signatures := parseSignatureHeader(header)
	if timestamp == 0 || len(signatures) == 0 {
		return false
	}

	if tolerance > 0 {
		ts := time.Unix(timestamp, 0)
		if ts.Before(now.Add(-tolerance)) || ts.After(now.Add(tolerance)) {
			return false
		}
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	// Headers may carry multiple v1 entries during secret rotation.
	for _, sig := range signatures {
		decoded, err := hex.DecodeString(strings.ToLower(sig))
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return true
		}
	}
	return false
}

func parseSignatureHeader(header string) (int64, []string) {
	var timestamp int64
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found || value == "" {
			continue
		}
		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil
			}
			timestamp = ts
		case "v1":
			signatures = append(signatures, value)
		}
	}
	return timestamp, signatures
}
