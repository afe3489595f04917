package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestHMACSignatureVerifier(t *testing.T) {
	secret := "test-webhook-secret-at-least-32-chars!!"
	verifier := NewHMACSignatureVerifier(secret)
	body := []byte(`{"event_id":"evt1","contact":{"id":"c1"},"tag":{"name":"Elevate-AI-1-Completed"}}`)

	t.Run("ValidSignature", func(t *testing.T) {
		assert.True(t, verifier.Verify(body, sign(secret, body)))
	})

	t.Run("ValidSignatureWithPrefix", func(t *testing.T) {
		assert.True(t, verifier.Verify(body, "sha256="+sign(secret, body)))
	})

	t.Run("ValidSignatureWithSurroundingSpace", func(t *testing.T) {
		assert.True(t, verifier.Verify(body, " "+sign(secret, body)+" "))
	})

	t.Run("WrongSecret", func(t *testing.T) {
		assert.False(t, verifier.Verify(body, sign("some-other-secret-that-is-long-enough", body)))
	})

	t.Run("TamperedBody", func(t *testing.T) {
		sig := sign(secret, body)
		tampered := append([]byte{}, body...)
		tampered[0] = '['
		assert.False(t, verifier.Verify(tampered, sig))
	})

	t.Run("MalformedHexSignature", func(t *testing.T) {
		assert.False(t, verifier.Verify(body, "not-hex-at-all"))
	})

	t.Run("EmptySignature", func(t *testing.T) {
		assert.False(t, verifier.Verify(body, ""))
	})

	t.Run("EmptyBody", func(t *testing.T) {
		assert.False(t, verifier.Verify(nil, sign(secret, nil)))
	})

	t.Run("EmptySecretNeverVerifies", func(t *testing.T) {
		emptyVerifier := NewHMACSignatureVerifier("")
		assert.False(t, emptyVerifier.Verify(body, sign("", body)))
	})
}
