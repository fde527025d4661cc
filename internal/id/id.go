package id

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const refDate = "2006-01-02"

// NewCloseID returns a random identifier for a close.
func NewCloseID() string {
	return uuid.NewString()
}

// ValidCloseID reports whether s looks like an ID from NewCloseID.
func ValidCloseID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// CloseRef returns the display reference of a close, like
// "CASH/ACME/2025-01-15".
func CloseRef(entity string, date time.Time) string {
	return "CASH/" + strings.ToUpper(entity) + "/" + date.Format(refDate)
}

// ParseCloseRef splits a reference from CloseRef.
func ParseCloseRef(ref string) (entity string, date time.Time, err error) {
	parts := strings.Split(ref, "/")
	if len(parts) != 3 || parts[0] != "CASH" || parts[1] == "" {
		return "", time.Time{}, fmt.Errorf("invalid close reference: %q", ref)
	}
	date, err = time.Parse(refDate, parts[2])
	if err != nil {
		return "", time.Time{}, fmt.Errorf("invalid date in close reference %q: %w", ref, err)
	}
	return parts[1], date, nil
}

// ParseEntryID parses a ledger entry ID like "2025-01-001a" into year,
// month and sequence.
func ParseEntryID(id string) (year, month, seq int, err error) {
	// Strip any leg suffix (trailing lowercase letters).
	base := EntryGroup(id)

	parts := strings.SplitN(base, "-", 3)
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid entry ID format: %q", id)
	}

	year, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid year in entry ID %q: %w", id, err)
	}

	month, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid month in entry ID %q: %w", id, err)
	}

	seq, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid sequence in entry ID %q: %w", id, err)
	}

	return year, month, seq, nil
}

// EntryGroup strips the leg suffix from a leg ID.
// "2025-01-001a" -> "2025-01-001"
func EntryGroup(legID string) string {
	i := len(legID)
	for i > 0 && legID[i-1] >= 'a' && legID[i-1] <= 'z' {
		i--
	}
	return legID[:i]
}
