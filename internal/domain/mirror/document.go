// Package mirror copies student records into a secondary document store.
//
// The relational store stays authoritative. The Bridge is called by the
// record service after each committed write and makes a single best-effort
// attempt to bring the mirror document in line; failures are logged and
// never reach the caller.
package mirror

import (
	"time"

	"studentrecords/internal/domain/record"
)

// TimestampLayout is the textual form of created_at inside mirror documents.
const TimestampLayout = time.RFC3339Nano

// Document is the denormalized copy of a Record.
// The class label keeps the "Class" key used by existing consumers.
type Document struct {
	ID          int64  `bson:"_id" json:"id" dynamodbav:"id"`
	FirstName   string `bson:"first_name" json:"first_name" dynamodbav:"first_name"`
	LastName    string `bson:"last_name" json:"last_name" dynamodbav:"last_name"`
	Class       string `bson:"Class" json:"Class" dynamodbav:"Class"`
	PhoneNumber string `bson:"phone_number" json:"phone_number" dynamodbav:"phone_number"`
	Address     string `bson:"address" json:"address" dynamodbav:"address"`
	State       string `bson:"state" json:"state" dynamodbav:"state"`
	City        string `bson:"city" json:"city" dynamodbav:"city"`
	CreatedAt   string `bson:"created_at" json:"created_at" dynamodbav:"created_at"`
}

// NewDocument builds the mirror document for rec.
func NewDocument(rec *record.Record) Document {
	return Document{
		ID:          rec.ID,
		FirstName:   rec.FirstName,
		LastName:    rec.LastName,
		Class:       rec.ClassLabel,
		PhoneNumber: rec.PhoneNumber,
		Address:     rec.Address,
		State:       rec.State,
		City:        rec.City,
		CreatedAt:   rec.CreatedAt.UTC().Format(TimestampLayout),
	}
}
