package geo

import (
	"math"
	"sync"
)

// memoQuantum is the coordinate quantization step for cache keys, roughly
// one kilometer at the equator.
const memoQuantum = 0.01

// MemoClassifier wraps a LandClassifier with a bounded cache keyed by
// quantized coordinates. It exists for classifiers whose lookups are not
// cheap (remote-backed or large polygon sets) so that the parallel grid
// phase stays deterministic and fast. Errors are never cached.
type MemoClassifier struct {
	inner   LandClassifier
	maxSize int

	mu    sync.RWMutex
	cache map[memoKey]bool
}

type memoKey struct {
	lat, lon int32
}

// NewMemoClassifier wraps inner with a cache holding at most maxSize entries.
// A maxSize of zero or less selects the default of 262144 entries.
func NewMemoClassifier(inner LandClassifier, maxSize int) *MemoClassifier {
	if maxSize <= 0 {
		maxSize = 1 << 18
	}
	return &MemoClassifier{
		inner:   inner,
		maxSize: maxSize,
		cache:   make(map[memoKey]bool),
	}
}

// IsLand implements LandClassifier.
func (m *MemoClassifier) IsLand(lat, lon float64) (bool, error) {
	key := memoKey{
		lat: int32(math.Round(lat / memoQuantum)),
		lon: int32(math.Round(lon / memoQuantum)),
	}

	m.mu.RLock()
	v, ok := m.cache[key]
	m.mu.RUnlock()
	if ok {
		return v, nil
	}

	land, err := m.inner.IsLand(lat, lon)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	if len(m.cache) >= m.maxSize {
		// Full reset is cheaper than eviction bookkeeping and keeps the
		// cache bounded; quantized keys make refills fast.
		m.cache = make(map[memoKey]bool)
	}
	m.cache[key] = land
	m.mu.Unlock()

	return land, nil
}

// Size returns the current number of cached entries.
func (m *MemoClassifier) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.cache)
}
