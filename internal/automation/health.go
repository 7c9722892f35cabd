package automation

import "time"

type SystemHealth struct {
	DatabaseStatus      DatabaseStatus `json:"databaseStatus"`
	BrokenLinks         int            `json:"brokenLinks"`
	MissingTranslations int            `json:"missingTranslations"`
	StorageUsage        float64        `json:"storageUsage"`
	LastScan            time.Time      `json:"lastScan,omitzero"`
}

// Health returns the last scan's counts with a storage estimate refreshed
// for the current log size. It never reads the store.
func (e *Engine) Health() SystemHealth {
	e.mu.RLock()
	last := e.last
	e.mu.RUnlock()

	status := last.status
	if status == "" {
		status = DatabaseHealthy
	}
	return SystemHealth{
		DatabaseStatus:      status,
		BrokenLinks:         last.broken,
		MissingTranslations: last.missing,
		StorageUsage:        e.usage(last.dataBytes + e.log.Size()),
		LastScan:            last.at,
	}
}
