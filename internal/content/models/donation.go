package models

type PaymentMethod string

const (
	MethodBkash PaymentMethod = "Bkash"
	MethodNagad PaymentMethod = "Nagad"
	MethodCash  PaymentMethod = "Cash"
)

// RequiresReference reports whether the method carries a transaction id.
func (m PaymentMethod) RequiresReference() bool {
	return m == MethodBkash || m == MethodNagad
}

type DonationStatus string

const (
	DonationPending  DonationStatus = "pending"
	DonationApproved DonationStatus = "approved"
	DonationRejected DonationStatus = "rejected"
)

func (s DonationStatus) IsFinal() bool {
	return s == DonationApproved || s == DonationRejected
}

type Donation struct {
	ID          string         `json:"id"`
	DonorName   string         `json:"donorName"`
	Mobile      string         `json:"mobile"`
	Amount      int64          `json:"amount" validate:"gte=0"`
	Method      PaymentMethod  `json:"method" validate:"required,oneof=Bkash Nagad Cash"`
	TrxID       string         `json:"trxId,omitempty"`
	Note        string         `json:"note,omitempty"`
	IsAnonymous bool           `json:"isAnonymous"`
	Date        string         `json:"date" validate:"required"`
	Status      DonationStatus `json:"status" validate:"oneof=pending approved rejected"`
}

func (d Donation) RecordID() string { return d.ID }

func (d *Donation) SetRecordID(id string) { d.ID = id }

// CanTransitionTo reports whether a review may move d to next. A donation
// is reviewed exactly once.
func (d Donation) CanTransitionTo(next DonationStatus) bool {
	return d.Status == DonationPending && next.IsFinal()
}

type Expense struct {
	ID          string `json:"id"`
	Title       string `json:"title" validate:"required,max=200"`
	Amount      int64  `json:"amount" validate:"gte=0"`
	Category    string `json:"category" validate:"max=100"`
	Date        string `json:"date" validate:"required"`
	Description string `json:"description,omitempty"`
}

func (e Expense) RecordID() string { return e.ID }

func (e *Expense) SetRecordID(id string) { e.ID = id }
