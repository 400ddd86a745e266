// Package zid wraps xid for queue record ids. Ids sort by creation time which
// keeps the queue table roughly ordered by insertion.
package zid

import (
	"database/sql/driver"
	"fmt"
	"github.com/rs/xid"
	"time"
)

type ID struct {
	internal xid.ID
}

func New() ID {
	return ID{
		internal: xid.New(),
	}
}

func NewWithTime(t time.Time) ID {
	return ID{
		internal: xid.NewWithTime(t),
	}
}

func (id ID) Time() time.Time {
	return id.internal.Time()
}

func (id ID) IsZero() bool {
	return id.internal.IsNil()
}

func (id ID) Value() (driver.Value, error) {
	return id.internal.Value()
}

// Scan implements the sql.Scanner interface.
func (id *ID) Scan(value interface{}) (err error) {
	return id.internal.Scan(value)
}

func (id *ID) UnmarshalText(text []byte) error {
	return id.internal.UnmarshalText(text)
}
func (id ID) MarshalText() ([]byte, error) {
	return id.internal.MarshalText()
}

func (id *ID) UnmarshalJSON(b []byte) error {
	return id.internal.UnmarshalJSON(b)
}
func (id ID) MarshalJSON() ([]byte, error) {
	return id.internal.MarshalJSON()
}

func (id ID) String() string {
	return id.internal.String()
}

func FromString(id string) (ID, error) {
	i, err := xid.FromString(id)
	if err != nil {
		return ID{}, fmt.Errorf("could not parse id %s, %w", id, err)
	}
	return ID{internal: i}, nil
}

// Compare orders ids by creation time, then by the remaining bytes.
func (id ID) Compare(other ID) int {
	return id.internal.Compare(other.internal)
}
