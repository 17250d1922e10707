package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/balramkumarpandey/apna-room/internal/config"
	"github.com/balramkumarpandey/apna-room/internal/db"
	"github.com/balramkumarpandey/apna-room/internal/models"
)

// IInquiryService defines the interface for inquiry intake and lookup.
type IInquiryService interface {
	CreateTenantInquiry(ctx context.Context, roomID primitive.ObjectID, name, phone, paymentProofKey string) (*models.TenantInquiry, error)
	CreateLandlordInquiry(ctx context.Context, name, phone, address string) (*models.LandlordInquiry, error)
	FindTenantInquiryByID(ctx context.Context, inquiryID primitive.ObjectID) (*models.TenantInquiry, error)
	FindLandlordInquiryByID(ctx context.Context, inquiryID primitive.ObjectID) (*models.LandlordInquiry, error)
	FindLatestTenantInquiryByPhone(ctx context.Context, phoneFragment string) (*models.TenantInquiry, error)
}

const (
	tenantInquiriesCollection   = "tenant_inquiries"
	landlordInquiriesCollection = "landlord_inquiries"
)

// inquiryService implements IInquiryService.
type inquiryService struct {
	db  *mongo.Database
	cfg *config.Config
}

// NewInquiryService creates a new InquiryService.
func NewInquiryService(db *mongo.Database, cfg *config.Config) IInquiryService {
	return &inquiryService{db: db, cfg: cfg}
}

// CreateTenantInquiry validates and persists a tenant inquiry. The referenced
// room must exist; the caller is responsible for scheduling the notification
// only after this returns.
func (s *inquiryService) CreateTenantInquiry(ctx context.Context, roomID primitive.ObjectID, name, phone, paymentProofKey string) (*models.TenantInquiry, error) {
	fields := map[string]string{}
	if name == "" {
		fields["name"] = "this field is required"
	}
	if phone == "" {
		fields["phone_number"] = "this field is required"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	// Referential check: the inquiry must point at an existing room.
	err := s.db.Collection(roomsCollection).FindOne(ctx, bson.M{"_id": roomID}).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NewValidationError("room", "referenced room does not exist")
		}
		return nil, fmt.Errorf("error checking room %s: %w", roomID.Hex(), err)
	}

	inquiry := &models.TenantInquiry{
		RoomID:            roomID,
		Name:              name,
		PhoneNumber:       phone,
		PaymentScreenshot: paymentProofKey,
		CreatedAt:         time.Now().UTC(),
	}

	collection := s.db.Collection(tenantInquiriesCollection)
	operation := func() error {
		inquiry.ID = primitive.NewObjectID()
		_, insertErr := collection.InsertOne(ctx, inquiry)
		return insertErr
	}
	if err := db.Try(operation); err != nil {
		return nil, fmt.Errorf("failed to insert tenant inquiry for room %s after multiple retries: %w", roomID.Hex(), err)
	}
	return inquiry, nil
}

// CreateLandlordInquiry validates and persists a landlord listing request.
func (s *inquiryService) CreateLandlordInquiry(ctx context.Context, name, phone, address string) (*models.LandlordInquiry, error) {
	fields := map[string]string{}
	if name == "" {
		fields["name"] = "this field is required"
	}
	if phone == "" {
		fields["phone_number"] = "this field is required"
	}
	if address == "" {
		fields["address"] = "this field is required"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	inquiry := &models.LandlordInquiry{
		Name:        name,
		PhoneNumber: phone,
		Address:     address,
		CreatedAt:   time.Now().UTC(),
	}

	collection := s.db.Collection(landlordInquiriesCollection)
	operation := func() error {
		inquiry.ID = primitive.NewObjectID()
		_, insertErr := collection.InsertOne(ctx, inquiry)
		return insertErr
	}
	if err := db.Try(operation); err != nil {
		return nil, fmt.Errorf("failed to insert landlord inquiry after multiple retries: %w", err)
	}
	return inquiry, nil
}

// FindTenantInquiryByID finds a tenant inquiry by its ID.
func (s *inquiryService) FindTenantInquiryByID(ctx context.Context, inquiryID primitive.ObjectID) (*models.TenantInquiry, error) {
	var inquiry models.TenantInquiry
	err := s.db.Collection(tenantInquiriesCollection).FindOne(ctx, bson.M{"_id": inquiryID}).Decode(&inquiry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding tenant inquiry %s: %w", inquiryID.Hex(), err)
	}
	return &inquiry, nil
}

// FindLandlordInquiryByID finds a landlord inquiry by its ID.
func (s *inquiryService) FindLandlordInquiryByID(ctx context.Context, inquiryID primitive.ObjectID) (*models.LandlordInquiry, error) {
	var inquiry models.LandlordInquiry
	err := s.db.Collection(landlordInquiriesCollection).FindOne(ctx, bson.M{"_id": inquiryID}).Decode(&inquiry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding landlord inquiry %s: %w", inquiryID.Hex(), err)
	}
	return &inquiry, nil
}

// FindLatestTenantInquiryByPhone returns the most recently created tenant
// inquiry whose phone number contains phoneFragment (case-insensitive
// substring match, deliberately not exact: operators approve by typing the
// tail digits of a number). Returns mongo.ErrNoDocuments on a miss.
func (s *inquiryService) FindLatestTenantInquiryByPhone(ctx context.Context, phoneFragment string) (*models.TenantInquiry, error) {
	if phoneFragment == "" {
		return nil, mongo.ErrNoDocuments
	}
	filter := bson.M{
		"phone_number": primitive.Regex{Pattern: regexp.QuoteMeta(phoneFragment), Options: "i"},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var inquiry models.TenantInquiry
	err := s.db.Collection(tenantInquiriesCollection).FindOne(ctx, filter, opts).Decode(&inquiry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error searching tenant inquiries by phone fragment %q: %w", phoneFragment, err)
	}
	return &inquiry, nil
}
