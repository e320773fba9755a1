package columns

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"studentrecords/internal/domain/record"
)

type audit struct {
	CreatedAt time.Time `db:"created_at"`
}

type withEmbedded struct {
	audit
	ID      int64  `db:"id"`
	Name    string `db:"name"`
	Ignored string `db:"-"`
	NoTag   string
}

func TestOf_Record(t *testing.T) {
	cols := Of[record.Record]()

	assert.Equal(t, []string{
		"id", "first_name", "last_name", "class_label", "phone_number",
		"address", "state", "city", "created_at",
	}, cols)
}

func TestOf_Embedded(t *testing.T) {
	assert.Equal(t, []string{"created_at", "id", "name"}, Of[withEmbedded]())
}


func TestMap(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rec := &record.Record{ID: 7, FirstName: "Ann", LastName: "Lee", ClassLabel: "10A", CreatedAt: now}

	m := Map(rec, "id")

	assert.NotContains(t, m, "id")
	assert.Equal(t, "Ann", m["first_name"])
	assert.Equal(t, "10A", m["class_label"])
	assert.Equal(t, "", m["city"])
	assert.Equal(t, now, m["created_at"])
}

func TestMap_Embedded(t *testing.T) {
	now := time.Now()
	m := Map(withEmbedded{audit: audit{CreatedAt: now}, ID: 1, Name: "x", Ignored: "y"})

	assert.Equal(t, map[string]any{"created_at": now, "id": int64(1), "name": "x"}, m)
}

func TestMap_NonStruct(t *testing.T) {
	assert.Nil(t, Map(42))
}
