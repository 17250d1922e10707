package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task type names, namespaced by concern.
const (
	TypeTenantInquiryEmail   = "email:inquiry:tenant"
	TypeLandlordInquiryEmail = "email:inquiry:landlord"
	TypeWhatsAppText         = "whatsapp:text"
	TypeImageProcess         = "image:process"
)

// InquiryEmailPayload carries only the inquiry ID; the worker re-reads the
// persisted record so the message reflects current field values.
type InquiryEmailPayload struct {
	InquiryID string `json:"inquiry_id"`
}

// WhatsAppTextPayload is a single outbound chat message.
type WhatsAppTextPayload struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// ImageTaskPayload identifies an uploaded room image to normalize.
type ImageTaskPayload struct {
	S3Key  string `json:"s3_key"`
	RoomID string `json:"room_id"`
}

// IDispatcher schedules notification work on the background queue. Dispatch
// is fire-and-forget: each task is attempted at most once (MaxRetry 0), the
// caller gets no handle and cannot await or cancel it.
type IDispatcher interface {
	DispatchTenantInquiryEmail(ctx context.Context, inquiryID primitive.ObjectID) error
	DispatchLandlordInquiryEmail(ctx context.Context, inquiryID primitive.ObjectID) error
	DispatchWhatsAppText(ctx context.Context, to, body string) error
	DispatchImageProcess(ctx context.Context, roomID primitive.ObjectID, s3Key string) error
}

// NewClient builds an asynq client on top of an existing Redis connection.
func NewClient(rdb *redis.Client) *asynq.Client {
	clientOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}
	return asynq.NewClient(clientOpt)
}

// dispatcher implements IDispatcher over an asynq client.
type dispatcher struct {
	client *asynq.Client
}

// NewDispatcher creates a Dispatcher that enqueues onto asynq.
func NewDispatcher(client *asynq.Client) IDispatcher {
	return &dispatcher{client: client}
}

func (d *dispatcher) enqueue(ctx context.Context, taskType string, payload interface{}, queue string) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", taskType, err)
	}
	task := asynq.NewTask(taskType, data)
	// MaxRetry(0): delivery is best-effort, a failed attempt is terminal.
	_, err = d.client.EnqueueContext(ctx, task, asynq.MaxRetry(0), asynq.Queue(queue))
	if err != nil {
		return fmt.Errorf("failed to enqueue %s task: %w", taskType, err)
	}
	return nil
}

func (d *dispatcher) DispatchTenantInquiryEmail(ctx context.Context, inquiryID primitive.ObjectID) error {
	return d.enqueue(ctx, TypeTenantInquiryEmail, InquiryEmailPayload{InquiryID: inquiryID.Hex()}, "default")
}

func (d *dispatcher) DispatchLandlordInquiryEmail(ctx context.Context, inquiryID primitive.ObjectID) error {
	return d.enqueue(ctx, TypeLandlordInquiryEmail, InquiryEmailPayload{InquiryID: inquiryID.Hex()}, "default")
}

func (d *dispatcher) DispatchWhatsAppText(ctx context.Context, to, body string) error {
	return d.enqueue(ctx, TypeWhatsAppText, WhatsAppTextPayload{To: to, Body: body}, "default")
}

func (d *dispatcher) DispatchImageProcess(ctx context.Context, roomID primitive.ObjectID, s3Key string) error {
	return d.enqueue(ctx, TypeImageProcess, ImageTaskPayload{S3Key: s3Key, RoomID: roomID.Hex()}, "images")
}
