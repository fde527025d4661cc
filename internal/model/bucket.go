package model

import (
	"strconv"
	"strings"
)

// Bucket is the currency classification of a cash account for closing.
type Bucket string

const (
	BucketLocal Bucket = "local"
	BucketUSD   Bucket = "usd"
	BucketEUR   Bucket = "eur"
)

// Buckets lists every bucket in report order.
var Buckets = []Bucket{BucketLocal, BucketUSD, BucketEUR}

// Slot identifies which ledger amount pair a bucket reads.
type Slot int

const (
	SlotNative Slot = iota
	SlotAlternate
)

// Slot returns the ledger slot backing the bucket. USD and EUR share the
// single alternate slot.
func (b Bucket) Slot() Slot {
	if b == BucketUSD || b == BucketEUR {
		return SlotAlternate
	}
	return SlotNative
}

// Alternate reports whether the bucket reads the alternate slot.
func (b Bucket) Alternate() bool { return b.Slot() == SlotAlternate }

// Valid reports whether b is a known bucket.
func (b Bucket) Valid() bool {
	switch b {
	case BucketLocal, BucketUSD, BucketEUR:
		return true
	}
	return false
}

// ResolveBucket maps a close currency code to its bucket. Any currency other
// than USD and EUR (including the empty string) is the local bucket.
func ResolveBucket(closeCurrency string) Bucket {
	switch strings.ToUpper(strings.TrimSpace(closeCurrency)) {
	case "USD":
		return BucketUSD
	case "EUR":
		return BucketEUR
	default:
		return BucketLocal
	}
}

func itoa(i int) string { return strconv.Itoa(i) }
