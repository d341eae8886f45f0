package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// SliderImage is a homepage slider entry backed by a hosted image.
type SliderImage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	SecureURL string             `bson:"secure_url" json:"secure_url"`
	PublicID  string             `bson:"public_id" json:"public_id"`
}
