package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"time"
)

// Tracking code prefixes.
const (
	QuotationPrefix   = "COT"
	ReservationPrefix = "RES"
)

var trackingCodeRe = regexp.MustCompile(`^[A-Z]{3}-\d{6}-\d{5}$`)

// NewTrackingCode returns PREFIX-YYMMDD-NNNNN with five random digits.
// Uniqueness is enforced by the database; callers retry on collision.
func NewTrackingCode(prefix string, at time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(100000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%05d", prefix, at.Format("060102"), n.Int64()), nil
}

// IsTrackingCode reports whether s has the PREFIX-YYMMDD-NNNNN shape.
func IsTrackingCode(s string) bool { return trackingCodeRe.MatchString(s) }
