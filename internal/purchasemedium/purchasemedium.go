package purchasemedium

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("purchase medium not found")
	// ErrInUse is returned when a reading still references the medium.
	ErrInUse = errors.New("purchase medium is referenced by readings")
)

type Category string

const (
	CategoryPhysical Category = "physical"
	CategoryDigital  Category = "digital"
	CategoryOther    Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryPhysical, CategoryDigital, CategoryOther:
		return true
	}
	return false
}

// Medium is where a book was bought. Name is an identifier; display names
// belong to the client.
type Medium struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Category  *Category `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func category(c Category) *Category { return &c }

// Defaults returns the media every installation starts with, in seeding order.
func Defaults() []Medium {
	return []Medium{
		{Name: "paperbook", Category: category(CategoryPhysical)},
		{Name: "kindle", Category: category(CategoryDigital)},
		{Name: "rakuten_kobo", Category: category(CategoryDigital)},
		{Name: "doly", Category: category(CategoryDigital)},
		{Name: "other", Category: category(CategoryOther)},
	}
}
