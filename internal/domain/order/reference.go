package order

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
)

const referencePrefix = "ORD-"

// NewReference generates a human-facing order reference. The reference
// correlates the order with the payment processor, so callers must verify it
// against existing orders before accepting it.
func NewReference() string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	if len(id) < 10 {
		return ""
	}
	return referencePrefix + strings.ToUpper(id[:10])
}

// FallbackReference builds a reference from the current time plus a random
// suffix. It is used when the primary generator yields nothing, and goes
// through the same uniqueness check as a primary reference.
func FallbackReference(now time.Time) string {
	return fmt.Sprintf("%s%d-%04d", referencePrefix, now.UnixMilli(), rand.Intn(10000))
}
