package engine

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// idGenerator is swappable in tests for deterministic tokens and order ids.
var idGenerator = generateID

func generateID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

func newOrderID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, idGenerator())
}
