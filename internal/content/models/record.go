// Package models holds the persisted content types. JSON field names match
// the documents already in the store.
package models

// Record is anything stored under its own id in a collection.
type Record interface {
	RecordID() string
}

// Ordered records are displayed by ascending SortOrder.
type Ordered interface {
	Record
	SortOrder() int
}

// ImageRef is an image reference plus a human label for scan reports.
type ImageRef struct {
	URL     string
	Context string
}

type Collection string

const (
	CollectionDonations Collection = "donations"
	CollectionExpenses  Collection = "expenses"
	CollectionLeaders   Collection = "leaders"
	CollectionMembers   Collection = "members"
	CollectionEvents    Collection = "events"
	CollectionGallery   Collection = "gallery"
)

// SettingsPath holds the AppSettings singleton.
const SettingsPath = "app_settings"

// Collections lists every collection in a stable order.
var Collections = []Collection{
	CollectionDonations,
	CollectionExpenses,
	CollectionLeaders,
	CollectionMembers,
	CollectionEvents,
	CollectionGallery,
}

func (c Collection) Valid() bool {
	for _, known := range Collections {
		if c == known {
			return true
		}
	}
	return false
}
