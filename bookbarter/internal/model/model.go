package model

import (
	"time"

	"github.com/google/uuid"
)

type Availability string

const (
	AvailabilityForSale     Availability = "for_sale"
	AvailabilityForExchange Availability = "for_exchange"
	AvailabilityForBoth     Availability = "for_both"
	AvailabilitySold        Availability = "sold"
)

func (a Availability) Valid() bool {
	switch a {
	case AvailabilityForSale, AvailabilityForExchange, AvailabilityForBoth, AvailabilitySold:
		return true
	}
	return false
}

// Priced reports whether a listing with this availability carries a price.
func (a Availability) Priced() bool {
	return a == AvailabilityForSale || a == AvailabilityForBoth
}

type Condition string

const (
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
	ConditionPoor      Condition = "poor"
)

func (c Condition) Valid() bool {
	switch c {
	case ConditionExcellent, ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Password  string    `json:"-" db:"password"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// UserRef is the public part of a user joined into books and notifications.
type UserRef struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Message   string    `json:"message"`
	UserID    uuid.UUID `json:"userId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type ExchangePreferences struct {
	Genres        []string `json:"genres"`
	Authors       []string `json:"authors"`
	SpecificBooks []string `json:"specificBooks"`
}

func (p ExchangePreferences) normalize() ExchangePreferences {
	if p.Genres == nil {
		p.Genres = []string{}
	}
	if p.Authors == nil {
		p.Authors = []string{}
	}
	if p.SpecificBooks == nil {
		p.SpecificBooks = []string{}
	}
	return p
}

type Book struct {
	ID                  uuid.UUID           `json:"id"`
	Title               string              `json:"title"`
	Author              string              `json:"author"`
	Description         string              `json:"description"`
	Price               *float64            `json:"price"`
	Owner               UserRef             `json:"owner"`
	Availability        Availability        `json:"availability"`
	Condition           Condition           `json:"condition"`
	ExchangePreferences ExchangePreferences `json:"exchangePreferences"`
	CoverURL            string              `json:"coverUrl,omitempty"`
	CreatedAt           time.Time           `json:"createdAt"`
}

// BookInput is the full set of writable listing fields; updates overwrite all of them.
type BookInput struct {
	Title               string              `json:"title"`
	Author              string              `json:"author"`
	Description         string              `json:"description"`
	Condition           Condition           `json:"condition" validate:"omitempty,oneof=excellent good fair poor"`
	Availability        Availability        `json:"availability" validate:"omitempty,oneof=for_sale for_exchange for_both sold"`
	Price               *float64            `json:"price" validate:"omitempty,gte=0"`
	Owner               uuid.UUID           `json:"owner"`
	ExchangePreferences ExchangePreferences `json:"exchangePreferences"`
}

// Normalize applies listing defaults and drops the price of listings that are not for sale.
func (in BookInput) Normalize() BookInput {
	if in.Availability == "" {
		in.Availability = AvailabilityForBoth
	}
	if in.Condition == "" {
		in.Condition = ConditionGood
	}
	if !in.Availability.Priced() {
		in.Price = nil
	}
	in.ExchangePreferences = in.ExchangePreferences.normalize()
	return in
}

type Cover struct {
	FileName    string
	ContentType string
	Size        int64
}

type UserStats struct {
	UserID               uuid.UUID  `json:"userId"`
	LastActivity         *time.Time `json:"lastActivity"`
	BooksListed          int        `json:"booksListed"`
	BooksRemoved         int        `json:"booksRemoved"`
	OffersSent           int        `json:"offersSent"`
	NotificationsRead    int        `json:"notificationsRead"`
	NotificationsDeleted int        `json:"notificationsDeleted"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
