package services

import (
	"context"
	"errors"
	"fmt"
	"log"
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

// RoomFilter carries the optional filters of a room listing query.
type RoomFilter struct {
	RoomType    *string
	IsAvailable *bool
	ColonyName  *string
	TenantType  *string
	Search      *string // free-text across title/description/colony/address
	SortBy      string  // "price", "-price", "created_at", "-created_at"
	Limit       int
}

// IRoomService defines the interface for room-related operations.
type IRoomService interface {
	CreateRoom(ctx context.Context, room *models.Room) (*models.Room, error)
	FindRoomByID(ctx context.Context, roomID primitive.ObjectID) (*models.Room, error)
	UpdateRoom(ctx context.Context, roomID primitive.ObjectID, updates map[string]interface{}) (*models.Room, error)
	DeleteRoom(ctx context.Context, roomID primitive.ObjectID) error
	ListRooms(ctx context.Context, filter RoomFilter) ([]models.Room, error)
	AddImageToRoom(ctx context.Context, roomID primitive.ObjectID, imageKey string) error
	ListColonies(ctx context.Context) ([]models.Colony, error)
}

const (
	roomsCollection    = "rooms"
	coloniesCollection = "colonies"
)

// roomService implements IRoomService.
type roomService struct {
	db  *mongo.Database
	cfg *config.Config
}

// NewRoomService creates a new RoomService.
func NewRoomService(db *mongo.Database, cfg *config.Config) IRoomService {
	return &roomService{db: db, cfg: cfg}
}

// validateRoom checks the Room invariants enforced at intake.
func validateRoom(room *models.Room) error {
	fields := map[string]string{}
	if room.Title == "" {
		fields["title"] = "this field is required"
	}
	if room.Address == "" {
		fields["address"] = "this field is required"
	}
	if room.Price < 0 {
		fields["price"] = "must not be negative"
	}
	if room.TotalInventory < 0 {
		fields["total_inventory"] = "must not be negative"
	}
	if room.TenantType != "" && !models.ValidTenantType(room.TenantType) {
		fields["tenant_type"] = "unknown tenant type"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// CreateRoom validates and inserts a new room document. Defaults mirror the
// admin form: 1_RK room type, available, open to any tenant, one unit.
func (s *roomService) CreateRoom(ctx context.Context, room *models.Room) (*models.Room, error) {
	if err := validateRoom(room); err != nil {
		return nil, err
	}
	if room.RoomType == "" {
		room.RoomType = "1_RK"
	}
	if room.TenantType == "" {
		room.TenantType = models.TenantTypeAny
	}
	if room.TotalInventory == 0 {
		room.TotalInventory = 1
	}
	if room.BrokerName == "" {
		room.BrokerName = "Office"
	}
	// New rooms always start available; availability is only toggled off
	// through an explicit update.
	room.IsAvailable = true
	if room.Images == nil {
		room.Images = []string{}
	}
	room.CreatedAt = time.Now().UTC()

	collection := s.db.Collection(roomsCollection)
	operation := func() error {
		room.ID = primitive.NewObjectID()
		_, insertErr := collection.InsertOne(ctx, room)
		return insertErr
	}
	if err := db.Try(operation); err != nil {
		return nil, fmt.Errorf("failed to insert room %q after multiple retries: %w", room.Title, err)
	}

	if err := s.ensureColony(ctx, room.ColonyName); err != nil {
		// The room is already persisted; a colony upsert failure is not fatal.
		log.Printf("Warning: failed to record colony %q: %v", room.ColonyName, err)
	}

	return room, nil
}

// ensureColony upserts the colony name so GET /api/colonies stays in sync
// with the rooms actually listed.
func (s *roomService) ensureColony(ctx context.Context, name string) error {
	if name == "" {
		return nil
	}
	collection := s.db.Collection(coloniesCollection)
	filter := bson.M{"name": name}
	update := bson.M{"$setOnInsert": bson.M{"name": name, "created_at": time.Now().UTC()}}
	opts := options.Update().SetUpsert(true)
	_, err := collection.UpdateOne(ctx, filter, update, opts)
	return err
}

// FindRoomByID finds a room by its ID.
func (s *roomService) FindRoomByID(ctx context.Context, roomID primitive.ObjectID) (*models.Room, error) {
	var room models.Room
	collection := s.db.Collection(roomsCollection)
	err := collection.FindOne(ctx, bson.M{"_id": roomID}).Decode(&room)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments // Use standard error
		}
		return nil, fmt.Errorf("error finding room by ID %s: %w", roomID.Hex(), err)
	}
	return &room, nil
}

// allowed update fields; anything else in the request is ignored.
var roomUpdateFields = map[string]bool{
	"title": true, "price": true, "description": true, "address": true,
	"colony_name": true, "room_type": true, "is_available": true,
	"tenant_type": true, "google_map_link": true, "total_inventory": true,
	"broker_name": true, "broker_phone": true, "landlord_name": true,
	"landlord_phone": true, "video_key": true,
}

// UpdateRoom applies a partial update and returns the updated document.
func (s *roomService) UpdateRoom(ctx context.Context, roomID primitive.ObjectID, updates map[string]interface{}) (*models.Room, error) {
	set := bson.M{}
	for k, v := range updates {
		if !roomUpdateFields[k] {
			continue
		}
		switch k {
		case "price", "total_inventory":
			if n, ok := toInt(v); !ok || n < 0 {
				return nil, NewValidationError(k, "must be a non-negative integer")
			} else {
				set[k] = n
			}
		case "tenant_type":
			tt, _ := v.(string)
			if !models.ValidTenantType(models.TenantType(tt)) {
				return nil, NewValidationError(k, "unknown tenant type")
			}
			set[k] = tt
		default:
			set[k] = v
		}
	}
	if len(set) == 0 {
		return nil, NewValidationError("updates", "no updatable fields provided")
	}

	collection := s.db.Collection(roomsCollection)
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Room
	err := collection.FindOneAndUpdate(ctx, bson.M{"_id": roomID}, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error updating room %s: %w", roomID.Hex(), err)
	}
	return &updated, nil
}

// DeleteRoom removes a room document.
func (s *roomService) DeleteRoom(ctx context.Context, roomID primitive.ObjectID) error {
	collection := s.db.Collection(roomsCollection)
	res, err := collection.DeleteOne(ctx, bson.M{"_id": roomID})
	if err != nil {
		return fmt.Errorf("error deleting room %s: %w", roomID.Hex(), err)
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListRooms returns rooms matching the given filters, optionally restricted
// by a free-text search across title/description/colony/address.
func (s *roomService) ListRooms(ctx context.Context, filter RoomFilter) ([]models.Room, error) {
	query := bson.M{}
	if filter.RoomType != nil {
		query["room_type"] = *filter.RoomType
	}
	if filter.IsAvailable != nil {
		query["is_available"] = *filter.IsAvailable
	}
	if filter.ColonyName != nil {
		query["colony_name"] = *filter.ColonyName
	}
	if filter.TenantType != nil {
		query["tenant_type"] = *filter.TenantType
	}
	if filter.Search != nil && *filter.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(*filter.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
			bson.M{"colony_name": pattern},
			bson.M{"address": pattern},
		}
	}

	sort := bson.D{{Key: "created_at", Value: -1}}
	switch filter.SortBy {
	case "price":
		sort = bson.D{{Key: "price", Value: 1}}
	case "-price":
		sort = bson.D{{Key: "price", Value: -1}}
	case "created_at":
		sort = bson.D{{Key: "created_at", Value: 1}}
	case "-created_at", "":
		// default above
	}

	limit := int64(filter.Limit)
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	opts := options.Find().SetSort(sort).SetLimit(limit)

	cursor, err := s.db.Collection(roomsCollection).Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing rooms: %w", err)
	}
	defer cursor.Close(ctx)

	rooms := []models.Room{}
	if err := cursor.All(ctx, &rooms); err != nil {
		return nil, fmt.Errorf("error decoding rooms: %w", err)
	}
	return rooms, nil
}

// AddImageToRoom appends a processed image key to the room's images array.
func (s *roomService) AddImageToRoom(ctx context.Context, roomID primitive.ObjectID, imageKey string) error {
	collection := s.db.Collection(roomsCollection)
	res, err := collection.UpdateOne(ctx,
		bson.M{"_id": roomID},
		bson.M{"$addToSet": bson.M{"images": imageKey}},
	)
	if err != nil {
		return fmt.Errorf("error adding image %s to room %s: %w", imageKey, roomID.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListColonies returns all colonies sorted by name.
func (s *roomService) ListColonies(ctx context.Context) ([]models.Colony, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := s.db.Collection(coloniesCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing colonies: %w", err)
	}
	defer cursor.Close(ctx)

	colonies := []models.Colony{}
	if err := cursor.All(ctx, &colonies); err != nil {
		return nil, fmt.Errorf("error decoding colonies: %w", err)
	}
	return colonies, nil
}

// toInt normalizes JSON/BSON numeric representations.
func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
