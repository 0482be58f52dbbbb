package checkout

import (
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

const orderNumberPrefix = "ORD-"

// newOrderNumber generates a shareable order number: the prefix plus twelve
// uppercase hex characters drawn from a v4 UUID. Random rather than
// sequential, since guests track orders by number and the numbers must not
// be guessable. A UNIQUE constraint backs up the negligible collision odds.
func newOrderNumber() string {
	id := uuid.New()
	return orderNumberPrefix + strings.ToUpper(hex.EncodeToString(id[:6]))
}
