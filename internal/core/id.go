package core

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

const codeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength is the length of an arena join code.
const CodeLength = 6

// GenerateID returns a new entity identifier.
func GenerateID() string {
	return uuid.NewString()
}

// GenerateCode returns a short, human-shareable arena code. Ambiguous
// characters (0/O, 1/I) are excluded.
func GenerateCode() string {
	b := make([]byte, CodeLength)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		if err != nil {
			return fallbackCode()
		}
		b[i] = codeCharset[num.Int64()]
	}
	return string(b)
}

func fallbackCode() string {
	s := fmt.Sprintf("%06d", time.Now().UnixNano()%1000000)
	return s[:CodeLength]
}

// ShortID truncates an identifier for display.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
