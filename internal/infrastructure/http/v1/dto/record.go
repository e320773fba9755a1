package dto

import (
	"time"

	"studentrecords/internal/domain/record"
)

// CreateRecordRequest is the body of POST /records and PUT /records/:id.
// Unknown keys such as id or createdAt are ignored. Values are trimmed and
// checked by record.Record.Validate, not by binding tags.
type CreateRecordRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Class       string `json:"class"`
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address"`
	State       string `json:"state"`
	City        string `json:"city"`
}

// ToFields converts to domain fields.
func (r *CreateRecordRequest) ToFields() record.Fields {
	return record.Fields{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		ClassLabel:  r.Class,
		PhoneNumber: r.PhoneNumber,
		Address:     r.Address,
		State:       r.State,
		City:        r.City,
	}
}

// PatchRecordRequest is the body of PATCH /records/:id. Absent keys keep their value.
type PatchRecordRequest struct {
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	Class       *string `json:"class"`
	PhoneNumber *string `json:"phoneNumber"`
	Address     *string `json:"address"`
	State       *string `json:"state"`
	City        *string `json:"city"`
}

// ToChanges converts to domain changes.
func (r *PatchRecordRequest) ToChanges() record.Changes {
	return record.Changes{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		ClassLabel:  r.Class,
		PhoneNumber: r.PhoneNumber,
		Address:     r.Address,
		State:       r.State,
		City:        r.City,
	}
}

// RecordResponse represents a record in API response.
type RecordResponse struct {
	ID          int64     `json:"id"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	FullName    string    `json:"fullName"`
	Class       string    `json:"class"`
	PhoneNumber string    `json:"phoneNumber"`
	Address     string    `json:"address"`
	State       string    `json:"state"`
	City        string    `json:"city"`
	CreatedAt   time.Time `json:"createdAt"`
}

// FromRecord creates response from domain record.
func FromRecord(r *record.Record) *RecordResponse {
	return &RecordResponse{
		ID:          r.ID,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		FullName:    r.FullName(),
		Class:       r.ClassLabel,
		PhoneNumber: r.PhoneNumber,
		Address:     r.Address,
		State:       r.State,
		City:        r.City,
		CreatedAt:   r.CreatedAt,
	}
}

// FromRecords converts a slice of records.
func FromRecords(recs []*record.Record) []*RecordResponse {
	out := make([]*RecordResponse, 0, len(recs))
	for _, r := range recs {
		out = append(out, FromRecord(r))
	}
	return out
}
