package models

// Requests for dataset HTTP endpoints. Defined in domain for consistency and reuse.

type DatasetRequest struct {
	Currency string `query:"currency" json:"currency" validate:"omitempty,min=3,max=12"`
	From     string `query:"from" json:"from" validate:"omitempty,datetime=2006-01-02"`
	To       string `query:"to" json:"to" validate:"omitempty,datetime=2006-01-02"`
	Limit    int    `query:"limit" json:"limit" default:"10000" validate:"gte=1,lte=100000"`
}

type CorrectionsRequest struct {
	Currency string `query:"currency" json:"currency" validate:"omitempty,min=3,max=12"`
}
