package automation

import (
	"errors"
	"slices"
	"sync"
	"time"

	"azadi/internal/content/store"
)

type DatabaseStatus string

const (
	DatabaseHealthy DatabaseStatus = "healthy"
	DatabaseWarning DatabaseStatus = "warning"
	DatabaseError   DatabaseStatus = "error"
)

// Report summarizes one run.
type Report struct {
	StartedAt           time.Time `json:"startedAt"`
	FinishedAt          time.Time `json:"finishedAt"`
	BrokenLinks         int       `json:"brokenLinks"`
	ProfilesFixed       int       `json:"profilesFixed"`
	MissingTranslations int       `json:"missingTranslations"`
	StorageUsage        float64   `json:"storageUsage"`
	Degraded            []string  `json:"degraded,omitempty"`
}

// scan accumulates counts from concurrently running tasks.
type scan struct {
	mu        sync.Mutex
	reads     map[string]bool // collection -> degraded
	broken    int
	fixed     int
	missing   int
	dataBytes int
}

func newScan() *scan {
	return &scan{reads: make(map[string]bool)}
}

// observe records a collection read and reports whether it can be trusted.
func (s *scan) observe(collection string, err error) bool {
	degraded := errors.Is(err, store.ErrDegraded)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads[collection] = s.reads[collection] || degraded
	return err == nil
}

func (s *scan) add(broken, fixed, missing int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broken += broken
	s.fixed += fixed
	s.missing += missing
}

func (s *scan) setDataBytes(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataBytes = n
}

func (s *scan) result(at time.Time) scanResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := scanResult{
		at:        at,
		broken:    s.broken,
		fixed:     s.fixed,
		missing:   s.missing,
		dataBytes: s.dataBytes,
		status:    DatabaseHealthy,
	}
	for name, degraded := range s.reads {
		if degraded {
			r.degraded = append(r.degraded, name)
		}
	}
	slices.Sort(r.degraded)
	switch {
	case len(r.degraded) == 0:
	case len(r.degraded) == len(s.reads):
		r.status = DatabaseError
	default:
		r.status = DatabaseWarning
	}
	return r
}

type scanResult struct {
	at        time.Time
	broken    int
	fixed     int
	missing   int
	dataBytes int
	status    DatabaseStatus
	degraded  []string
}

func (r scanResult) degradedNames() []string {
	return slices.Clone(r.degraded)
}
