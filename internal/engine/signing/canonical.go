package signing

import (
	"net/url"
	"strings"
)

// FormEscape escapes s for a form-encoded query: spaces become '+' and every
// byte outside [A-Za-z0-9-_.] is percent-encoded with upper-case hex.
func FormEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "~", "%7E")
}

// EncodeQuery renders the flattened parameters as key=value pairs joined by
// '&', sorted by key.
func EncodeQuery(flat *Flattened) string {
	if flat == nil || flat.Len() == 0 {
		return ""
	}

	var b strings.Builder
	for i, key := range flat.SortedKeys() {
		v, _ := flat.Get(key)
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(FormEscape(key))
		b.WriteByte('=')
		b.WriteString(FormEscape(v.Text()))
	}
	return b.String()
}

// Canonicalize builds the string to sign: the encoded parameters followed by
// the access key, nonce and timestamp. The three trailing fields are written
// as given.
func Canonicalize(flat *Flattened, accessKey, nonce, timestamp string) string {
	var b strings.Builder
	b.WriteString(EncodeQuery(flat))
	b.WriteString("&accessKey=")
	b.WriteString(accessKey)
	b.WriteString("&nonce=")
	b.WriteString(nonce)
	b.WriteString("&timestamp=")
	b.WriteString(timestamp)

	return strings.TrimPrefix(b.String(), "&")
}
