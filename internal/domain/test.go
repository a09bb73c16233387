package domain

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Test is a bookable diagnostic service listing.
type Test struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name      string             `bson:"name" json:"name"`
	Image     string             `bson:"image" json:"image"`
	Price     float64            `bson:"price" json:"price"`
	Date      string             `bson:"date" json:"date"`
	Details   string             `bson:"details" json:"details"`
	Slots     int                `bson:"slots" json:"slots"`
	Bookings  int                `bson:"bookings" json:"bookings"`
	CreatedAt time.Time          `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
}

// TestInput is the editable part of a Test. PUT replaces all of it.
type TestInput struct {
	Name    string  `json:"name"`
	Image   string  `json:"image"`
	Price   float64 `json:"price"`
	Date    string  `json:"date"`
	Details string  `json:"details"`
	Slots   int     `json:"slots"`
}

func (in *TestInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Date = strings.TrimSpace(in.Date)
	switch {
	case in.Name == "":
		return fmt.Errorf("%w: name is required", ErrValidation)
	case in.Price < 0:
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	case in.Slots < 0:
		return fmt.Errorf("%w: slots must not be negative", ErrValidation)
	}
	return nil
}

const MaxPageSize = 100

// Page selects a window of a listing sorted newest first.
type Page struct {
	Index int
	Size  int
}

func (p Page) Skip() int64 {
	return int64(p.Index) * int64(p.Size)
}

func NewPage(index, size int) (Page, error) {
	if index < 0 {
		return Page{}, fmt.Errorf("%w: page must not be negative", ErrValidation)
	}
	if size <= 0 {
		return Page{}, fmt.Errorf("%w: item must be positive", ErrValidation)
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{Index: index, Size: size}, nil
}
