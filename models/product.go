package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProductImage struct {
	SecureURL string `bson:"secure_url" json:"secure_url"`
	PublicID  string `bson:"public_id" json:"public_id"`
	Order     int    `bson:"order" json:"order"`
}

type Rating struct {
	Star     int                `bson:"star" json:"star"`
	Comment  string             `bson:"comment" json:"comment"`
	PostedBy primitive.ObjectID `bson:"postedby" json:"postedby"`
}

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title       string             `bson:"title" json:"title"`
	Price       float64            `bson:"price" json:"price"`
	Category    primitive.ObjectID `bson:"category" json:"category"`
	Brand       primitive.ObjectID `bson:"brand" json:"brand"`
	Quantity    int                `bson:"quantity" json:"quantity"`
	Sold        int                `bson:"sold" json:"sold"`
	Imgs        []ProductImage     `bson:"imgs" json:"imgs"`
	Color       string             `bson:"color" json:"color"`
	Description string             `bson:"description" json:"description"`
	Ratings     []Rating           `bson:"ratings" json:"ratings"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
