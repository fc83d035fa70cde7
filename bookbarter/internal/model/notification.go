package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationContact         NotificationType = "contact"
	NotificationBuyRequest      NotificationType = "buy_request"
	NotificationSellRequest     NotificationType = "sell_request"
	NotificationExchangeRequest NotificationType = "exchange_request"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationContact, NotificationBuyRequest, NotificationSellRequest, NotificationExchangeRequest:
		return true
	}
	return false
}

type NotificationStatus string

const (
	StatusUnread NotificationStatus = "unread"
	StatusRead   NotificationStatus = "read"
	// StatusResponded is never set by the server itself, only through SetStatus.
	StatusResponded NotificationStatus = "responded"
)

func (s NotificationStatus) Valid() bool {
	switch s {
	case StatusUnread, StatusRead, StatusResponded:
		return true
	}
	return false
}

type ContactInfo struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// BookRef is empty apart from ID when the referenced book was deleted.
type BookRef struct {
	ID     uuid.UUID `json:"id"`
	Title  string    `json:"title,omitempty"`
	Author string    `json:"author,omitempty"`
}

type Notification struct {
	ID          uuid.UUID          `json:"id"`
	RecipientID uuid.UUID          `json:"recipient"`
	Sender      UserRef            `json:"sender"`
	Type        NotificationType   `json:"type"`
	Book        BookRef            `json:"book"`
	Message     string             `json:"message"`
	ContactInfo ContactInfo        `json:"contactInfo"`
	Status      NotificationStatus `json:"status"`
	CreatedAt   time.Time          `json:"createdAt"`
}

type OfferRequest struct {
	BookID      uuid.UUID   `json:"bookId"`
	OwnerID     uuid.UUID   `json:"ownerId"`
	SenderID    uuid.UUID   `json:"senderId"`
	Message     string      `json:"message"`
	ContactInfo ContactInfo `json:"contactInfo"`
}

type ContactRequest struct {
	OfferRequest
}

type BuyRequest struct {
	OfferRequest
	OfferPrice float64 `json:"offerPrice" validate:"gte=0"`
}

type ExchangeRequest struct {
	OfferRequest
	OfferedBookIDs []uuid.UUID `json:"offeredBookIds"`
}

type StatusRequest struct {
	Status NotificationStatus `json:"status" validate:"required,oneof=unread read responded"`
}

type UnreadCount struct {
	Count int `json:"count"`
}
