package models

type Event struct {
	ID          string        `json:"id"`
	Title       LocalizedText `json:"title"`
	Description LocalizedText `json:"description"`
	Location    string        `json:"location"`
	Date        string        `json:"date"`
	Image       string        `json:"image"`
}

func (e Event) RecordID() string { return e.ID }

func (e *Event) SetRecordID(id string) { e.ID = id }

func (e Event) Images() []ImageRef {
	return []ImageRef{{URL: e.Image, Context: "Event: " + e.Title.EN}}
}

func (e *Event) LocalizedFields() []LocalizedField {
	return []LocalizedField{
		{Name: "title", Text: &e.Title},
		{Name: "description", Text: &e.Description},
	}
}

type GalleryItem struct {
	ID       string        `json:"id"`
	ImageURL string        `json:"imageUrl" validate:"required"`
	Category string        `json:"category"`
	Caption  LocalizedText `json:"caption"`
}

func (g GalleryItem) RecordID() string { return g.ID }

func (g *GalleryItem) SetRecordID(id string) { g.ID = id }

func (g GalleryItem) Images() []ImageRef {
	return []ImageRef{{URL: g.ImageURL, Context: "Gallery Item"}}
}

func (g *GalleryItem) LocalizedFields() []LocalizedField {
	return []LocalizedField{{Name: "caption", Text: &g.Caption}}
}
