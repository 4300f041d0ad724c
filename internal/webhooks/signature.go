package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignatureHeader carries "t=<unix seconds>,v1=<hex hmac>".
const SignatureHeader = "X-Wayfarer-Signature"

// Sign returns the header value for body sent at ts. The MAC covers
// "<ts>.<body>" so a captured request cannot be replayed with a new time.
func Sign(secret string, ts time.Time, body []byte) string {
	t := strconv.FormatInt(ts.Unix(), 10)
	return fmt.Sprintf("t=%s,v1=%s", t, mac(secret, t, body))
}

// Verify checks header against body. A zero tolerance skips the age check.
func Verify(secret, header string, body []byte, now time.Time, tolerance time.Duration) bool {
	var t, sig string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			t = v
		case "v1":
			sig = v
		}
	}
	if t == "" || sig == "" {
		return false
	}
	if tolerance > 0 {
		sec, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return false
		}
		if age := now.Sub(time.Unix(sec, 0)); age > tolerance || age < -tolerance {
			return false
		}
	}
	want, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	got, _ := hex.DecodeString(mac(secret, t, body))
	return hmac.Equal(got, want)
}

func mac(secret, t string, body []byte) string {
	m := hmac.New(sha256.New, []byte(secret))
	m.Write([]byte(t))
	m.Write([]byte("."))
	m.Write(body)
	return hex.EncodeToString(m.Sum(nil))
}
