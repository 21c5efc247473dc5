package models

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// GenerateID generates a new unique ID with the given prefix
func GenerateID(prefix string) string {
	id := uuid.New().String()

	// Format the ID with the prefix
	return fmt.Sprintf("%s-%s", prefix, id[:8])
}

// OrderNumber derives the externally visible order number from the durable
// internal id: the current date as YYYYMMDD followed by the id. It can only
// be computed after the order row has been inserted.
func OrderNumber(id int64, t time.Time) string {
	return t.Format("20060102") + strconv.FormatInt(id, 10)
}

// NewPaymentID builds a payment identifier for the given method prefix.
// The timestamp keeps it human-readable; the random suffix makes it unique
// under concurrent requests within the same second.
func NewPaymentID(prefix string, t time.Time) string {
	return fmt.Sprintf("%s-%s-%s", prefix, t.Format("20060102150405"), uuid.New().String()[:8])
}

// GetCurrentTime returns the current time in UTC
func GetCurrentTime() time.Time {
	return time.Now().UTC()
}
