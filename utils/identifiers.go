package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// randomInt returns a uniform random int in [0, max) from crypto/rand
func randomInt(max int64) int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(max))
	if err != nil {
		// Entropy exhaustion is not survivable for identifier generation
		panic("failed to read random bytes: " + err.Error())
	}
	return n.Int64()
}

// GenerateBookingCode produces a human-readable booking code in the
// BK-<9 digits> shape: four digits of the millisecond timestamp followed by
// a five-digit random suffix. Uniqueness is ultimately enforced by the
// database index; callers regenerate on a duplicate.
func GenerateBookingCode() string {
	ts := time.Now().UnixMilli() % 10000
	return fmt.Sprintf("BK-%04d%05d", ts, randomInt(100000))
}

// GenerateWarrantyToken produces an opaque warranty token unique per booking,
// e.g. WTMDLJ3K9X2F8A. Uppercase base36 keeps it short enough to print on a
// certificate and type into the tracking page.
func GenerateWarrantyToken() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffix := make([]byte, 5)
	for i := range suffix {
		suffix[i] = alphabet[randomInt(int64(len(alphabet)))]
	}
	return strings.ToUpper("WT" + ts + string(suffix))
}
