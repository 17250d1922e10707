package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/balramkumarpandey/apna-room/internal/models"
	"github.com/balramkumarpandey/apna-room/internal/services"
)

// --- Mocks ---

// MockRoomService
type MockRoomService struct {
	mock.Mock
}

func (m *MockRoomService) CreateRoom(ctx context.Context, room *models.Room) (*models.Room, error) {
	args := m.Called(ctx, room)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Room), args.Error(1)
}

func (m *MockRoomService) FindRoomByID(ctx context.Context, roomID primitive.ObjectID) (*models.Room, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Room), args.Error(1)
}

func (m *MockRoomService) UpdateRoom(ctx context.Context, roomID primitive.ObjectID, updates map[string]interface{}) (*models.Room, error) {
	args := m.Called(ctx, roomID, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Room), args.Error(1)
}

func (m *MockRoomService) DeleteRoom(ctx context.Context, roomID primitive.ObjectID) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

func (m *MockRoomService) ListRooms(ctx context.Context, filter services.RoomFilter) ([]models.Room, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Room), args.Error(1)
}

func (m *MockRoomService) AddImageToRoom(ctx context.Context, roomID primitive.ObjectID, imageKey string) error {
	args := m.Called(ctx, roomID, imageKey)
	return args.Error(0)
}

func (m *MockRoomService) ListColonies(ctx context.Context) ([]models.Colony, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Colony), args.Error(1)
}

// MockInquiryService
type MockInquiryService struct {
	mock.Mock
}

func (m *MockInquiryService) CreateTenantInquiry(ctx context.Context, roomID primitive.ObjectID, name, phone, paymentProofKey string) (*models.TenantInquiry, error) {
	args := m.Called(ctx, roomID, name, phone, paymentProofKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TenantInquiry), args.Error(1)
}

func (m *MockInquiryService) CreateLandlordInquiry(ctx context.Context, name, phone, address string) (*models.LandlordInquiry, error) {
	args := m.Called(ctx, name, phone, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LandlordInquiry), args.Error(1)
}

func (m *MockInquiryService) FindTenantInquiryByID(ctx context.Context, inquiryID primitive.ObjectID) (*models.TenantInquiry, error) {
	args := m.Called(ctx, inquiryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TenantInquiry), args.Error(1)
}

func (m *MockInquiryService) FindLandlordInquiryByID(ctx context.Context, inquiryID primitive.ObjectID) (*models.LandlordInquiry, error) {
	args := m.Called(ctx, inquiryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LandlordInquiry), args.Error(1)
}

func (m *MockInquiryService) FindLatestTenantInquiryByPhone(ctx context.Context, phoneFragment string) (*models.TenantInquiry, error) {
	args := m.Called(ctx, phoneFragment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TenantInquiry), args.Error(1)
}

// MockDispatcher
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) DispatchTenantInquiryEmail(ctx context.Context, inquiryID primitive.ObjectID) error {
	args := m.Called(ctx, inquiryID)
	return args.Error(0)
}

func (m *MockDispatcher) DispatchLandlordInquiryEmail(ctx context.Context, inquiryID primitive.ObjectID) error {
	args := m.Called(ctx, inquiryID)
	return args.Error(0)
}

func (m *MockDispatcher) DispatchWhatsAppText(ctx context.Context, to, body string) error {
	args := m.Called(ctx, to, body)
	return args.Error(0)
}

func (m *MockDispatcher) DispatchImageProcess(ctx context.Context, roomID primitive.ObjectID, s3Key string) error {
	args := m.Called(ctx, roomID, s3Key)
	return args.Error(0)
}

// MockS3Storage
type MockS3Storage struct {
	mock.Mock
}

func (m *MockS3Storage) GeneratePresignedPutURL(ctx context.Context, kind, filename, contentType string) (string, string, error) {
	args := m.Called(ctx, kind, filename, contentType)
	return args.String(0), args.String(1), args.Error(2)
}
