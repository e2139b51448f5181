package domain

import (
	"math/rand"
	"regexp"
	"strconv"
	"time"
)

const (
	orderNumberPrefix   = "ORD"
	orderNumberSuffixes = "0123456789abcdefghijklmnopqrstuvwxyz"
	orderNumberRandLen  = 7
)

var orderNumberPattern = regexp.MustCompile(`^ORD-\d+-[0-9a-z]{7}$`)

// NewOrderNumber renders ORD-<epoch millis>-<7 random base36 chars>.
// Uniqueness is probabilistic; storage enforces it with a unique index.
func NewOrderNumber(now time.Time) string {
	suffix := make([]byte, orderNumberRandLen)
	for i := range suffix {
		suffix[i] = orderNumberSuffixes[rand.Intn(len(orderNumberSuffixes))]
	}
	return orderNumberPrefix + "-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + string(suffix)
}

// IsOrderNumber reports whether s has the order number shape.
func IsOrderNumber(s string) bool {
	return orderNumberPattern.MatchString(s)
}
