package session

import (
	"log"
	"time"
)

// Reaper evicts stale sessions on a fixed interval, independent of request
// traffic.
type Reaper struct {
	Store    *Store
	TTL      time.Duration
	Interval time.Duration
	Logger   *log.Logger
	OnEvict  func(n int)
	stop     chan struct{}
}

func NewReaper(store *Store, ttl, interval time.Duration, logger *log.Logger) *Reaper {
	if logger == nil {
		logger = log.New(log.Writer(), "[REAPER] ", log.LstdFlags)
	}
	return &Reaper{
		Store:    store,
		TTL:      ttl,
		Interval: interval,
		Logger:   logger,
		stop:     make(chan struct{}),
	}
}

func (r *Reaper) Start() {
	ticker := time.NewTicker(r.Interval)
	go func() {
		for {
			select {
			case <-r.stop:
				ticker.Stop()
				return
			case <-ticker.C:
				r.tick()
			}
		}
	}()
}

func (r *Reaper) Stop() { close(r.stop) }

func (r *Reaper) tick() {
	if n := r.Store.Reap(r.TTL); n > 0 {
		r.Logger.Printf("evicted %d idle session(s), %d remaining", n, r.Store.Len())
		if r.OnEvict != nil {
			r.OnEvict(n)
		}
	}
}
