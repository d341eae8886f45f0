package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MethodCashOnDelivery = "Cash on Delivery"
	MethodCard           = "Card"
)

const (
	StatusProcessing = "Processing"
	StatusDispatched = "Dispatched"
	StatusCancelled  = "Cancelled"
	StatusDelivered  = "Delivered"
)

// Order is the immutable record of a submitted purchase. Only orderStatus
// changes after creation, through the admin status endpoint.
type Order struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Products    []LineItem         `bson:"products" json:"products"`
	Method      string             `bson:"method" json:"method"`
	TotalPrice  float64            `bson:"totalPrice" json:"totalPrice"`
	Currency    string             `bson:"currency" json:"currency"`
	OrderStatus string             `bson:"orderStatus" json:"orderStatus"`
	OrderBy     primitive.ObjectID `bson:"orderby" json:"orderby"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func ValidOrderMethod(m string) bool {
	return m == MethodCashOnDelivery || m == MethodCard
}

func ValidOrderStatus(s string) bool {
	switch s {
	case StatusProcessing, StatusDispatched, StatusCancelled, StatusDelivered:
		return true
	}
	return false
}
