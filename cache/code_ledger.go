package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/umakantv/go-utils/cache"
)

const (
	codeKeyPrefix = "oauth_code:"
	codeTTL       = 10 * time.Minute // Google codes are short-lived; nothing older can be redeemed anyway
)

// CodeLedger remembers which authorization codes have already been presented
// to the callback so a replayed code is rejected without calling the provider.
// Only a digest of the code is stored.
type CodeLedger struct {
	cache cache.Cache
}

// NewCodeLedger wraps c. A nil cache yields a nil ledger.
func NewCodeLedger(c cache.Cache) *CodeLedger {
	if c == nil {
		return nil
	}
	return &CodeLedger{cache: c}
}

// Seen reports whether code was presented before.
func (l *CodeLedger) Seen(code string) bool {
	v, err := l.cache.Get(codeKey(code))
	return err == nil && v != nil
}

// Remember marks code as presented. Seen followed by Remember is not atomic:
// two concurrent callbacks carrying the same code can both reach the provider,
// which then refuses the second.
func (l *CodeLedger) Remember(code string) error {
	return l.cache.Set(codeKey(code), time.Now().UTC().Format(time.RFC3339), codeTTL)
}

func codeKey(code string) string {
	sum := sha256.Sum256([]byte(code))
	return codeKeyPrefix + hex.EncodeToString(sum[:])
}
