package router

import (
	"math/rand/v2"
	"strings"
	"sync"
	"time"
)

// Interjector decides when to drop an unsolicited hype line into a group.
// One instance is shared by all chats: at most one interjection per cooldown
// process-wide.
type Interjector struct {
	cooldown   time.Duration
	baseChance float64
	hypeChance float64
	keywords   []string

	now  func() time.Time
	roll func() float64

	mu   sync.Mutex
	last time.Time
}

// NewInterjector builds an Interjector. keywords raise the chance from base to hype.
func NewInterjector(cooldown time.Duration, base, hype float64, keywords []string) *Interjector {
	kws := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			kws = append(kws, k)
		}
	}
	return &Interjector{
		cooldown:   cooldown,
		baseChance: base,
		hypeChance: hype,
		keywords:   kws,
		now:        time.Now,
		roll:       rand.Float64,
	}
}

// Decide reports whether to interject for text. The cooldown is checked before
// rolling, and the timestamp only moves when the answer is yes.
func (i *Interjector) Decide(text string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := i.now()
	if !i.last.IsZero() && now.Sub(i.last) < i.cooldown {
		return false
	}

	chance := i.baseChance
	lower := strings.ToLower(text)
	for _, kw := range i.keywords {
		if strings.Contains(lower, kw) {
			chance = i.hypeChance
			break
		}
	}

	if i.roll() >= chance {
		return false
	}
	i.last = now
	return true
}
