package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID returns "<prefix>_<unix millis>_<12 random hex chars>".
func NewID(prefix string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixMilli(), suffix)
}

const codeLetters = "ABCDEFGHJKLMNPQRSTUVWXYZ"

// HospitalCodeCandidate builds a code from up to three initials of name followed by
// `digits` random digits, e.g. "General Asha Hospital" -> "GAH789".
func HospitalCodeCandidate(name string, digits int) string {
	var prefix []byte
	for _, word := range strings.Fields(strings.ToUpper(name)) {
		if c := word[0]; c >= 'A' && c <= 'Z' {
			prefix = append(prefix, c)
		}
		if len(prefix) == 3 {
			break
		}
	}
	for len(prefix) < 3 {
		prefix = append(prefix, codeLetters[randomInt(len(codeLetters))])
	}

	var b strings.Builder
	b.Write(prefix)
	for i := 0; i < digits; i++ {
		b.WriteByte(byte('0' + randomInt(10)))
	}
	return b.String()
}

func randomInt(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(fmt.Sprintf("utils: crypto/rand failed: %v", err))
	}
	return int(v.Int64())
}

// NewResetToken returns a 256-bit random token, hex encoded.
func NewResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ConversationID is the same for a pair of participants regardless of order.
func ConversationID(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, ":")
}
