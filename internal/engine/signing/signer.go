package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Signer signs request parameters with one access/secret key pair.
// It holds no mutable state and is safe for concurrent use.
type Signer struct {
	accessKey string
	secretKey []byte
}

func NewSigner(accessKey, secretKey string) *Signer {
	return &Signer{
		accessKey: accessKey,
		secretKey: []byte(secretKey),
	}
}

func (s *Signer) AccessKey() string { return s.accessKey }

// StringToSign returns the canonical string for data, nonce and timestamp.
func (s *Signer) StringToSign(nonce, timestamp string, data *Mapping) (string, error) {
	flat, err := Flatten(data)
	if err != nil {
		return "", err
	}
	return Canonicalize(flat, s.accessKey, nonce, timestamp), nil
}

// Sign returns the lower-case hex HMAC-SHA256 of the canonical string.
func (s *Signer) Sign(nonce, timestamp string, data *Mapping) (string, error) {
	base, err := s.StringToSign(nonce, timestamp, data)
	if err != nil {
		return "", err
	}
	return HMAC(s.secretKey, []byte(base)), nil
}

// GenerateSignature signs data with a throwaway Signer.
func GenerateSignature(nonce, timestamp string, data *Mapping, accessKey, secretKey string) (string, error) {
	return NewSigner(accessKey, secretKey).Sign(nonce, timestamp, data)
}

func HMAC(secret, payload []byte) string {
	h := hmac.New(sha256.New, secret)
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
