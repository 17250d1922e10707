package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TenantType restricts who a room may be rented to.
type TenantType string

const (
	TenantTypeBoys   TenantType = "BOYS"
	TenantTypeGirls  TenantType = "GIRLS"
	TenantTypeFamily TenantType = "FAMILY"
	TenantTypeAny    TenantType = "ANY"
)

// ValidTenantType reports whether t is one of the known tenant types.
func ValidTenantType(t TenantType) bool {
	switch t {
	case TenantTypeBoys, TenantTypeGirls, TenantTypeFamily, TenantTypeAny:
		return true
	}
	return false
}

// Room represents a rentable room listing.
type Room struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Title          string             `bson:"title" json:"title"`
	Price          int                `bson:"price" json:"price"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	Address        string             `bson:"address" json:"address"`
	ColonyName     string             `bson:"colony_name" json:"colony_name"`
	RoomType       string             `bson:"room_type" json:"room_type"`
	IsAvailable    bool               `bson:"is_available" json:"is_available"`
	TenantType     TenantType         `bson:"tenant_type" json:"tenant_type"`
	GoogleMapLink  string             `bson:"google_map_link,omitempty" json:"google_map_link,omitempty"`
	TotalInventory int                `bson:"total_inventory" json:"total_inventory"`
	BrokerName     string             `bson:"broker_name" json:"broker_name"`
	BrokerPhone    string             `bson:"broker_phone" json:"broker_phone"`
	LandlordName   string             `bson:"landlord_name,omitempty" json:"landlord_name,omitempty"`
	LandlordPhone  string             `bson:"landlord_phone,omitempty" json:"landlord_phone,omitempty"`
	Images         []string           `bson:"images" json:"images"` // S3 keys
	VideoKey       string             `bson:"video_key,omitempty" json:"video_key,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}

// Colony is a named locality that rooms belong to.
type Colony struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name      string             `bson:"name" json:"name"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
