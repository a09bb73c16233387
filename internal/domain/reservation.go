package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationDelivered ReservationStatus = "delivered"
	ReservationCanceled  ReservationStatus = "canceled"
)

func ParseReservationStatus(s string) (ReservationStatus, bool) {
	switch ReservationStatus(s) {
	case ReservationPending, ReservationDelivered, ReservationCanceled:
		return ReservationStatus(s), true
	default:
		return "", false
	}
}

type Reservation struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	TestID          primitive.ObjectID `bson:"testId" json:"testId"`
	TestName        string             `bson:"testName" json:"testName"`
	Email           string             `bson:"email" json:"email"`
	Name            string             `bson:"name" json:"name"`
	Date            string             `bson:"date" json:"date"`
	Price           float64            `bson:"price" json:"price"`
	Status          ReservationStatus  `bson:"status" json:"status"`
	Report          string             `bson:"report,omitempty" json:"report,omitempty"`
	PaymentIntentID string             `bson:"paymentIntentId,omitempty" json:"paymentIntentId,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}

// HoldsSlot reports whether the reservation still occupies a test slot.
func (r *Reservation) HoldsSlot() bool {
	return r.Status == ReservationPending || r.Status == ""
}

// Transition checks a status change. release reports whether the change
// gives the held slot back to the test. A canceled reservation is final.
func (r *Reservation) Transition(to ReservationStatus) (release bool, err error) {
	if r.Status == ReservationCanceled && to != ReservationCanceled {
		return false, fmt.Errorf("%w: canceled reservation cannot become %s", ErrConflict, to)
	}
	return r.HoldsSlot() && to == ReservationCanceled, nil
}

func (r *Reservation) IsOwner(email string) bool {
	return SameEmail(r.Email, email)
}

// ReservationReq is the client payload. The owner email never comes from
// here; it is taken from the verified credential.
type ReservationReq struct {
	TestID          string  `json:"testId"`
	Name            string  `json:"name"`
	Price           float64 `json:"price"`
	PaymentIntentID string  `json:"paymentIntentId"`
}

func (r *ReservationReq) Validate() error {
	r.TestID = strings.TrimSpace(r.TestID)
	if r.TestID == "" {
		return fmt.Errorf("%w: testId is required", ErrValidation)
	}
	if r.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	return nil
}

type ReservationPatch struct {
	Status *string `json:"status,omitempty"`
	Report *string `json:"report,omitempty"`
}

// Validate checks the patch and returns the parsed status, if any.
func (p ReservationPatch) Validate() (*ReservationStatus, error) {
	if p.Status == nil && p.Report == nil {
		return nil, fmt.Errorf("%w: nothing to update", ErrValidation)
	}
	var status *ReservationStatus
	if p.Status != nil {
		st, ok := ParseReservationStatus(*p.Status)
		if !ok {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *p.Status)
		}
		status = &st
	}
	if p.Report != nil && *p.Report != "" {
		u, err := url.Parse(*p.Report)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("%w: report must be an http(s) url", ErrValidation)
		}
	}
	return status, nil
}

// ReservationResult is returned by the reservation flow: the insert of the
// reservation and the counter update on its test.
type ReservationResult struct {
	InsertResult InsertResult `json:"insertResult"`
	UpdateResult UpdateResult `json:"updateResult"`
}
