// Package assetspec converts between decimal strings at the API boundary
// and the fixed-point int64 values the matching core works in. Floating
// point never touches prices or amounts.
package assetspec

import (
	"fmt"
	"strings"
	"sync"
)

// Spec defines the fixed-point scales for one asset.
type Spec struct {
	Asset       string
	PriceScale  int
	AmountScale int
}

// DefaultScale applies to assets without a registered spec.
const DefaultScale = 6

var (
	mu    sync.RWMutex
	specs = make(map[string]Spec)
)

// Register overrides the scales for an asset.
func Register(s Spec) {
	mu.Lock()
	defer mu.Unlock()
	specs[strings.ToUpper(s.Asset)] = s
}

// For returns the spec for an asset, falling back to the default scales.
func For(asset string) Spec {
	key := strings.ToUpper(strings.TrimSpace(asset))
	mu.RLock()
	defer mu.RUnlock()
	if s, ok := specs[key]; ok {
		return s
	}
	return Spec{Asset: key, PriceScale: DefaultScale, AmountScale: DefaultScale}
}

// Pow10 returns 10^scale for non-negative scale values.
func Pow10(scale int) (int64, error) {
	if scale < 0 {
		return 0, fmt.Errorf("scale must be >= 0")
	}
	v := int64(1)
	for i := 0; i < scale; i++ {
		if v > (1<<63-1)/10 {
			return 0, fmt.Errorf("scale too large")
		}
		v *= 10
	}
	return v, nil
}
