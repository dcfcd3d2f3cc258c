package useragent

import (
	"crypto/rand"
	"math/big"
	"strings"
	"sync/atomic"
)

// Default is the identifying header sent with competitor page fetches when no
// rotation pool is configured.
const Default = "Mozilla/5.0"

// Strategy selects how Pick walks the pool.
type Strategy string

const (
	Sequential Strategy = "sequential"
	Random     Strategy = "random"
)

// Pool hands out User-Agent strings for outgoing page fetches.
// It is safe for concurrent use.
type Pool struct {
	uas      []string
	strategy Strategy
	counter  atomic.Uint64
}

// NewPool creates a pool from uas. Blank entries are dropped; an empty result
// falls back to a single-entry pool holding Default.
func NewPool(uas []string, strategy Strategy) *Pool {
	cleaned := make([]string, 0, len(uas))
	for _, ua := range uas {
		if ua = strings.TrimSpace(ua); ua != "" {
			cleaned = append(cleaned, ua)
		}
	}
	if len(cleaned) == 0 {
		cleaned = []string{Default}
	}
	if strategy != Random {
		strategy = Sequential
	}
	return &Pool{uas: cleaned, strategy: strategy}
}

// Pick returns the next User-Agent according to the pool's strategy.
func (p *Pool) Pick() string {
	if p.strategy == Random {
		return p.random()
	}
	return p.next()
}

func (p *Pool) next() string {
	if len(p.uas) == 0 {
		return ""
	}
	idx := p.counter.Add(1) - 1
	return p.uas[idx%uint64(len(p.uas))]
}

func (p *Pool) random() string {
	if len(p.uas) == 0 {
		return ""
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(p.uas))))
	if err != nil {
		return p.next()
	}
	return p.uas[n.Int64()]
}

// Len reports the number of entries in the pool.
func (p *Pool) Len() int { return len(p.uas) }
