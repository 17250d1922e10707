package tasks_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/balramkumarpandey/apna-room/internal/config"
	"github.com/balramkumarpandey/apna-room/internal/models"
	"github.com/balramkumarpandey/apna-room/internal/services"
	"github.com/balramkumarpandey/apna-room/internal/tasks"
)

// --- Mocks ---

type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	args := m.Called(ctx, to, subject, rawMessage)
	return args.Error(0)
}

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

type MockWhatsAppClient struct {
	mock.Mock
}

func (m *MockWhatsAppClient) SendText(ctx context.Context, to, body string) error {
	args := m.Called(ctx, to, body)
	return args.Error(0)
}

// --- Tests ---

func tenantEmailTask(t *testing.T, inquiryID primitive.ObjectID) *asynq.Task {
	t.Helper()
	payloadBytes, err := json.Marshal(tasks.InquiryEmailPayload{InquiryID: inquiryID.Hex()})
	assert.NoError(t, err)
	return asynq.NewTask(tasks.TypeTenantInquiryEmail, payloadBytes)
}

func TestHandleTenantInquiryEmailTask_Success(t *testing.T) {
	mockEmailSender := new(MockEmailSender)
	mockInquiryService := new(MockInquiryService)
	mockRoomService := new(MockRoomService)
	cfg := &config.Config{NotifyEmail: "team@example.com", SmtpFromAddress: "noreply@example.com"}

	p := tasks.NewTaskProcessor(cfg, mockEmailSender, mockInquiryService, mockRoomService, nil, nil)

	inquiryID := primitive.NewObjectID()
	roomID := primitive.NewObjectID()
	inquiry := &models.TenantInquiry{ID: inquiryID, RoomID: roomID, Name: "Ravi Kumar", PhoneNumber: "+919876543210"}
	room := &models.Room{ID: roomID, Title: "1RK near gate 2", LandlordName: "Sharma", LandlordPhone: "+919812345678"}

	mockInquiryService.On("FindTenantInquiryByID", mock.Anything, inquiryID).Return(inquiry, nil)
	mockRoomService.On("FindRoomByID", mock.Anything, roomID).Return(room, nil)

	expectedSubject := "New Inquiry: Ravi Kumar"
	mockEmailSender.On("Send",
		mock.Anything,
		[]string{"team@example.com"},
		expectedSubject,
		mock.MatchedBy(func(rawMsg []byte) bool {
			msgStr := string(rawMsg)
			assert.Contains(t, msgStr, "To: team@example.com")
			assert.Contains(t, msgStr, "From: noreply@example.com")
			assert.Contains(t, msgStr, fmt.Sprintf("Subject: %s", expectedSubject))
			assert.Contains(t, msgStr, "Name: Ravi Kumar")
			assert.Contains(t, msgStr, "Phone: +919876543210")
			assert.Contains(t, msgStr, "Room: 1RK near gate 2")
			assert.Contains(t, msgStr, "Landlord: Sharma (+919812345678)")
			return true
		}),
	).Return(nil)

	err := p.HandleTenantInquiryEmailTask(context.Background(), tenantEmailTask(t, inquiryID))

	assert.NoError(t, err)
	mockInquiryService.AssertExpectations(t)
	mockRoomService.AssertExpectations(t)
	mockEmailSender.AssertExpectations(t)
}

func TestHandleTenantInquiryEmailTask_BookingSubject(t *testing.T) {
	mockEmailSender := new(MockEmailSender)
	mockInquiryService := new(MockInquiryService)
	mockRoomService := new(MockRoomService)
	cfg := &config.Config{NotifyEmail: "team@example.com", SmtpFromAddress: "noreply@example.com"}

	p := tasks.NewTaskProcessor(cfg, mockEmailSender, mockInquiryService, mockRoomService, nil, nil)

	inquiryID := primitive.NewObjectID()
	roomID := primitive.NewObjectID()
	inquiry := &models.TenantInquiry{ID: inquiryID, RoomID: roomID, Name: "VISIT BOOKING: Ravi Kumar", PhoneNumber: "+919876543210"}
	room := &models.Room{ID: roomID, Title: "1RK near gate 2"}

	mockInquiryService.On("FindTenantInquiryByID", mock.Anything, inquiryID).Return(inquiry, nil)
	mockRoomService.On("FindRoomByID", mock.Anything, roomID).Return(room, nil)

	mockEmailSender.On("Send",
		mock.Anything,
		[]string{"team@example.com"},
		"₹99 PAYMENT RECEIVED: VISIT BOOKING: Ravi Kumar",
		mock.Anything,
	).Return(nil)

	err := p.HandleTenantInquiryEmailTask(context.Background(), tenantEmailTask(t, inquiryID))

	assert.NoError(t, err)
	mockEmailSender.AssertExpectations(t)
}

func TestHandleTenantInquiryEmailTask_InquiryNotFound(t *testing.T) {
	mockEmailSender := new(MockEmailSender)
	mockInquiryService := new(MockInquiryService)
	mockRoomService := new(MockRoomService)
	cfg := &config.Config{NotifyEmail: "team@example.com"}

	p := tasks.NewTaskProcessor(cfg, mockEmailSender, mockInquiryService, mockRoomService, nil, nil)

	inquiryID := primitive.NewObjectID()
	mockInquiryService.On("FindTenantInquiryByID", mock.Anything, inquiryID).Return(nil, assert.AnError)

	err := p.HandleTenantInquiryEmailTask(context.Background(), tenantEmailTask(t, inquiryID))

	assert.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry), "missing inquiry must not be retried")
	mockEmailSender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleTenantInquiryEmailTask_SendFailureIsTerminal(t *testing.T) {
	mockEmailSender := new(MockEmailSender)
	mockInquiryService := new(MockInquiryService)
	mockRoomService := new(MockRoomService)
	cfg := &config.Config{NotifyEmail: "team@example.com"}

	p := tasks.NewTaskProcessor(cfg, mockEmailSender, mockInquiryService, mockRoomService, nil, nil)

	inquiryID := primitive.NewObjectID()
	roomID := primitive.NewObjectID()
	inquiry := &models.TenantInquiry{ID: inquiryID, RoomID: roomID, Name: "Ravi Kumar", PhoneNumber: "+919876543210"}
	room := &models.Room{ID: roomID, Title: "1RK near gate 2"}

	mockInquiryService.On("FindTenantInquiryByID", mock.Anything, inquiryID).Return(inquiry, nil)
	mockRoomService.On("FindRoomByID", mock.Anything, roomID).Return(room, nil)
	mockEmailSender.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	err := p.HandleTenantInquiryEmailTask(context.Background(), tenantEmailTask(t, inquiryID))

	assert.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry), "a failed delivery attempt is terminal")
	mockEmailSender.AssertNumberOfCalls(t, "Send", 1)
}

func TestHandleLandlordInquiryEmailTask_Success(t *testing.T) {
	mockEmailSender := new(MockEmailSender)
	mockInquiryService := new(MockInquiryService)
	cfg := &config.Config{NotifyEmail: "team@example.com", SmtpFromAddress: "noreply@example.com"}

	p := tasks.NewTaskProcessor(cfg, mockEmailSender, mockInquiryService, nil, nil, nil)

	inquiryID := primitive.NewObjectID()
	inquiry := &models.LandlordInquiry{ID: inquiryID, Name: "Gupta", PhoneNumber: "+919811111111", Address: "Sector 15, Gurgaon"}

	mockInquiryService.On("FindLandlordInquiryByID", mock.Anything, inquiryID).Return(inquiry, nil)
	mockEmailSender.On("Send",
		mock.Anything,
		[]string{"team@example.com"},
		"New Property Listing Request",
		mock.MatchedBy(func(rawMsg []byte) bool {
			msgStr := string(rawMsg)
			assert.Contains(t, msgStr, "Name: Gupta")
			assert.Contains(t, msgStr, "Phone: +919811111111")
			assert.Contains(t, msgStr, "Location: Sector 15, Gurgaon")
			return true
		}),
	).Return(nil)

	payloadBytes, _ := json.Marshal(tasks.InquiryEmailPayload{InquiryID: inquiryID.Hex()})
	task := asynq.NewTask(tasks.TypeLandlordInquiryEmail, payloadBytes)

	err := p.HandleLandlordInquiryEmailTask(context.Background(), task)

	assert.NoError(t, err)
	mockInquiryService.AssertExpectations(t)
	mockEmailSender.AssertExpectations(t)
}

func TestHandleWhatsAppTextTask_Success(t *testing.T) {
	mockWAClient := new(MockWhatsAppClient)
	cfg := &config.Config{}

	p := tasks.NewTaskProcessor(cfg, nil, nil, nil, mockWAClient, nil)

	mockWAClient.On("SendText", mock.Anything, "919876543210", "Details sent successfully to 9876543210").Return(nil)

	payloadBytes, _ := json.Marshal(tasks.WhatsAppTextPayload{To: "919876543210", Body: "Details sent successfully to 9876543210"})
	task := asynq.NewTask(tasks.TypeWhatsAppText, payloadBytes)

	err := p.HandleWhatsAppTextTask(context.Background(), task)

	assert.NoError(t, err)
	mockWAClient.AssertExpectations(t)
}

func TestHandleWhatsAppTextTask_DeliveryFailureIsTerminal(t *testing.T) {
	mockWAClient := new(MockWhatsAppClient)
	cfg := &config.Config{}

	p := tasks.NewTaskProcessor(cfg, nil, nil, nil, mockWAClient, nil)

	mockWAClient.On("SendText", mock.Anything, "919876543210", "hello").Return(errors.New("api unreachable"))

	payloadBytes, _ := json.Marshal(tasks.WhatsAppTextPayload{To: "919876543210", Body: "hello"})
	task := asynq.NewTask(tasks.TypeWhatsAppText, payloadBytes)

	err := p.HandleWhatsAppTextTask(context.Background(), task)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry), "a failed delivery attempt is terminal")
	mockWAClient.AssertNumberOfCalls(t, "SendText", 1)
}

func TestHandleTenantInquiryEmailTask_BadPayload(t *testing.T) {
	p := tasks.NewTaskProcessor(&config.Config{}, nil, nil, nil, nil, nil)

	task := asynq.NewTask(tasks.TypeTenantInquiryEmail, []byte("{not json"))
	err := p.HandleTenantInquiryEmailTask(context.Background(), task)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}
