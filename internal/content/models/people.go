package models

type Leader struct {
	ID          string         `json:"id"`
	Name        LocalizedText  `json:"name"`
	Designation LocalizedText  `json:"designation"`
	Image       string         `json:"image"`
	Order       int            `json:"order" validate:"gte=0"`
	Message     *LocalizedText `json:"message,omitempty"`
	Bio         *LocalizedText `json:"bio,omitempty"`
}

func (l Leader) RecordID() string { return l.ID }

func (l Leader) SortOrder() int { return l.Order }

func (l *Leader) SetRecordID(id string) { l.ID = id }

func (l *Leader) SetSortOrder(n int) { l.Order = n }

func (l Leader) Images() []ImageRef {
	return []ImageRef{{URL: l.Image, Context: "Leader: " + l.Name.EN}}
}

// LocalizedFields returns pointers into l, so callers can fill gaps in place.
func (l *Leader) LocalizedFields() []LocalizedField {
	fields := []LocalizedField{
		{Name: "name", Text: &l.Name},
		{Name: "designation", Text: &l.Designation},
	}
	if l.Message != nil {
		fields = append(fields, LocalizedField{Name: "message", Text: l.Message})
	}
	if l.Bio != nil {
		fields = append(fields, LocalizedField{Name: "bio", Text: l.Bio})
	}
	return fields
}

type Member struct {
	ID          string        `json:"id"`
	Name        LocalizedText `json:"name"`
	Designation LocalizedText `json:"designation"`
	Image       string        `json:"image"`
	Order       int           `json:"order" validate:"gte=0"`
}

func (m Member) RecordID() string { return m.ID }

func (m Member) SortOrder() int { return m.Order }

func (m *Member) SetRecordID(id string) { m.ID = id }

func (m *Member) SetSortOrder(n int) { m.Order = n }

func (m Member) Images() []ImageRef {
	return []ImageRef{{URL: m.Image, Context: "Member: " + m.Name.EN}}
}

func (m *Member) LocalizedFields() []LocalizedField {
	return []LocalizedField{
		{Name: "name", Text: &m.Name},
		{Name: "designation", Text: &m.Designation},
	}
}
