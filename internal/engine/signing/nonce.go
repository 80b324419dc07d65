package signing

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"time"
)

// NonceSource produces a fresh nonce for every request.
type NonceSource interface {
	Nonce() (string, error)
}

// Clock supplies the request timestamp.
type Clock interface {
	Now() time.Time
}

const (
	nonceMin = 100000
	nonceMax = 999999
)

// RandomNonce draws six-digit decimal nonces from crypto/rand.
type RandomNonce struct{}

func (RandomNonce) Nonce() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(nonceMax-nonceMin+1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+nonceMin, 10), nil
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Timestamp renders t as decimal Unix milliseconds in UTC.
func Timestamp(t time.Time) string {
	return strconv.FormatInt(t.UTC().UnixMilli(), 10)
}

// FixedNonce always returns the same nonce. Useful for reproducing a
// signature.
type FixedNonce string

func (n FixedNonce) Nonce() (string, error) { return string(n), nil }

// FixedClock always returns the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }
