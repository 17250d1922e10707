package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TenantInquiry represents a tenant's contact request for a specific room.
// Created once via intake, read back later by the notification worker.
type TenantInquiry struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	RoomID            primitive.ObjectID `bson:"room_id" json:"room"`
	Name              string             `bson:"name" json:"name"`
	PhoneNumber       string             `bson:"phone_number" json:"phone_number"`
	PaymentScreenshot string             `bson:"payment_screenshot,omitempty" json:"payment_screenshot,omitempty"` // S3 key
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
}

// LandlordInquiry represents a property owner asking to list their property.
type LandlordInquiry struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name        string             `bson:"name" json:"name"`
	PhoneNumber string             `bson:"phone_number" json:"phone_number"`
	Address     string             `bson:"address" json:"address"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}
