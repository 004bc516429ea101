package upi

import (
	"crypto/rand"
	"fmt"
	"io"
	"time"
)

const (
	DefaultRefPrefix = "CACHE"
	refSuffixLen     = 5
	refAlphabet      = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	refStampLayout   = "20060102150405"
)

// GenerateTransactionRef returns "<prefix>-<yyyymmddhhmmss UTC>-<5 random [A-Z0-9]>".
func GenerateTransactionRef(prefix string) string {
	return generateTransactionRef(prefix, time.Now(), rand.Reader)
}

func generateTransactionRef(prefix string, now time.Time, random io.Reader) string {
	if prefix == "" {
		prefix = DefaultRefPrefix
	}
	return fmt.Sprintf("%s-%s-%s", prefix, now.UTC().Format(refStampLayout), randomSuffix(random))
}

func randomSuffix(random io.Reader) string {
	buf := make([]byte, refSuffixLen)
	out := make([]byte, refSuffixLen)

	// rejection sampling keeps the alphabet uniform: 252 is the largest multiple of 36 below 256
	for i := 0; i < refSuffixLen; {
		if _, err := io.ReadFull(random, buf[:1]); err != nil {
			panic(fmt.Sprintf("failed to read random bytes: %s", err))
		}
		if buf[0] >= 252 {
			continue
		}
		out[i] = refAlphabet[int(buf[0])%len(refAlphabet)]
		i++
	}
	return string(out)
}
