// Package model defines the domain types used across the application.
package model

import "time"

// Listing types and conditions offered by the catalogue.
const (
	TypeNewBuild  = "Новостройка"
	TypeSecondary = "Вторичное жильё"

	ConditionRenovated = "С ремонтом"
	ConditionBare      = "Без ремонта"
	ConditionAverage   = "Среднее состояние"
)

// Listing is one apartment available for search.
type Listing struct {
	ID           int64
	Type         string  `validate:"required,oneof=Новостройка 'Вторичное жильё'"`
	District     string  `validate:"required,max=100"`
	Condition    string  `validate:"required,oneof='С ремонтом' 'Без ремонта' 'Среднее состояние'"`
	Area         float64 `validate:"gt=0"`
	Rooms        int     `validate:"gte=1"`
	Price        int     `validate:"gte=0"`
	Address      string  `validate:"required,max=255"`
	Orientation  string  `validate:"max=255"`
	Floor        int
	FloorsTotal  int `validate:"gtefield=Floor"`
	Description  string
	ContactName  string  `validate:"required,max=100"`
	ContactPhone string  `validate:"required,max=20"`
	Images       []Image `validate:"dive"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Image is a photo attached to a listing. Path is relative to the media root
// unless it is already an absolute URL.
type Image struct {
	ID    int64
	Path  string `validate:"required"`
	Order int
}

// Choice is a discrete facet selection. Any lifts the constraint regardless
// of Values.
type Choice[T comparable] struct {
	Values []T  `json:"values" validate:"dive,required"`
	Any    bool `json:"any"`
}

// Ready reports whether the user has made a decision for the facet.
func (c Choice[T]) Ready() bool {
	return c.Any || len(c.Values) > 0
}

// RangeFacet is a numeric facet selection. Ranges hold raw "min:max" tokens so
// stored subscriptions stay parseable as-is.
type RangeFacet struct {
	Ranges []string `json:"ranges" validate:"dive,numrange"`
	Any    bool     `json:"any"`
}

// Ready reports whether the user has made a decision for the facet.
func (r RangeFacet) Ready() bool {
	return r.Any || len(r.Ranges) > 0
}

// FilterSet is the combination of facet constraints a user has chosen.
type FilterSet struct {
	Type      Choice[string] `json:"type"`
	District  Choice[string] `json:"district"`
	Condition Choice[string] `json:"condition"`
	Rooms     Choice[int]    `json:"rooms"`
	Area      RangeFacet     `json:"area"`
	Price     RangeFacet     `json:"price"`
}

// Complete reports whether every facet has a selection or is marked as any.
func (f FilterSet) Complete() bool {
	return f.Type.Ready() && f.District.Ready() && f.Condition.Ready() &&
		f.Rooms.Ready() && f.Area.Ready() && f.Price.Ready()
}

// Subscription is a filter set owned by a single Telegram user.
type Subscription struct {
	UserID    int64
	Filters   FilterSet
	CreatedAt time.Time
	UpdatedAt time.Time
}
