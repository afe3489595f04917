// Package services provides external collaborator implementations for the pipeline
package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignatureVerifier authenticates a webhook body against its signature
// header before any parsing or database work happens.
type SignatureVerifier interface {
	Verify(raw []byte, signatureHeader string) bool
}

// HMACSignatureVerifier implements SignatureVerifier with HMAC-SHA256 over
// the exact raw body bytes, hex-encoded. An optional "sha256=" header prefix
// is accepted. Comparison is constant-time.
type HMACSignatureVerifier struct {
	secret []byte
}

func NewHMACSignatureVerifier(secret string) SignatureVerifier {
	return &HMACSignatureVerifier{secret: []byte(secret)}
}

func (v *HMACSignatureVerifier) Verify(raw []byte, signatureHeader string) bool {
	if len(v.secret) == 0 || len(raw) == 0 || signatureHeader == "" {
		return false
	}

	signatureHeader = strings.TrimPrefix(strings.TrimSpace(signatureHeader), "sha256=")
	provided, err := hex.DecodeString(signatureHeader)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(raw)
	return hmac.Equal(mac.Sum(nil), provided)
}
