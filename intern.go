package sheetatlas

import "sync"

// InternPool deduplicates cell text so repeated strings share one backing
// allocation. Lookups take the lock-free sync.Map read path; first-seen
// strings go through LoadOrStore, so a single pool can be shared by sheets
// processed concurrently.
type InternPool struct {
	strings sync.Map // string -> string
	size    int64
	mu      sync.Mutex
}

// NewInternPool creates an empty pool.
func NewInternPool() *InternPool {
	return &InternPool{}
}

// Intern returns the canonical copy of s, storing it on first sight.
func (p *InternPool) Intern(s string) string {
	if canon, ok := p.strings.Load(s); ok {
		return canon.(string)
	}
	canon, loaded := p.strings.LoadOrStore(s, s)
	if !loaded {
		p.mu.Lock()
		p.size++
		p.mu.Unlock()
	}
	return canon.(string)
}

// Len reports how many distinct strings the pool holds.
func (p *InternPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return int(p.size)
}
