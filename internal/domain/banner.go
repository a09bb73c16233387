package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Banner is a promotional banner. At most one banner is active at a time.
type Banner struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name         string             `bson:"name" json:"name"`
	Image        string             `bson:"image" json:"image"`
	Title        string             `bson:"title" json:"title"`
	Description  string             `bson:"description" json:"description"`
	CouponCode   string             `bson:"couponCode" json:"couponCode"`
	DiscountRate float64            `bson:"discountRate" json:"discountRate"`
	IsActive     bool               `bson:"isActive" json:"isActive"`
	CreatedAt    time.Time          `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
}

// UnmarshalBSON accepts isActive stored as a bool or as the strings
// "true"/"false" written by earlier versions of the service.
func (b *Banner) UnmarshalBSON(data []byte) error {
	var doc bson.D
	if err := bson.Unmarshal(data, &doc); err != nil {
		return err
	}
	active := false
	for i, e := range doc {
		if e.Key == "isActive" {
			active = truthy(e.Value)
			doc = append(doc[:i], doc[i+1:]...)
			break
		}
	}
	rest, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	type plain Banner
	var p plain
	if err := bson.Unmarshal(rest, &p); err != nil {
		return err
	}
	*b = Banner(p)
	b.IsActive = active
	return nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		ok, _ := strconv.ParseBool(strings.TrimSpace(t))
		return ok
	case int32:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	default:
		return false
	}
}

type BannerInput struct {
	Name         string  `json:"name"`
	Image        string  `json:"image"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	CouponCode   string  `json:"couponCode"`
	DiscountRate float64 `json:"discountRate"`
}

func (in *BannerInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.CouponCode = strings.TrimSpace(in.CouponCode)
	switch {
	case in.Name == "":
		return fmt.Errorf("%w: name is required", ErrValidation)
	case in.DiscountRate < 0 || in.DiscountRate > 100:
		return fmt.Errorf("%w: discountRate must be between 0 and 100", ErrValidation)
	}
	return nil
}
