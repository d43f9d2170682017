package conversationrepo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/janhq/support-chat/internal/domain/chat"
	"github.com/janhq/support-chat/internal/infrastructure/database/dbschema"
	"github.com/janhq/support-chat/internal/utils/platformerrors"
)

type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewConversationRepository(db *gorm.DB) chat.Repository {
	return &Repository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *Repository) CreateConversation(ctx context.Context) (*chat.Conversation, error) {
	model := &dbschema.Conversation{
		ID:        uuid.NewString(),
		CreatedAt: r.now(),
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to create conversation", err, "7b1e2c4d-3a5f-4e6b-8c7d-9e0f1a2b3c4d")
	}
	return model.EtoD(), nil
}

func (r *Repository) ConversationExists(ctx context.Context, id string) (bool, error) {
	// postgres rejects malformed uuid literals, so those can never exist
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&dbschema.Conversation{}).
		Where("id = ?", id).
		Count(&count).Error
	if err != nil {
		return false, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to look up conversation", err, "2d8f6a1b-9c3e-4f7a-b5d2-6e1c0a9b8f73")
	}
	return count > 0, nil
}

func (r *Repository) AppendMessage(ctx context.Context, conversationID string, sender chat.Sender, text string) (*chat.Message, error) {
	model := &dbschema.Message{
		ConversationID: conversationID,
		Sender:         string(sender),
		Text:           text,
		CreatedAt:      r.now(),
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to append message", err, "c46a0e3f-5b1d-4a92-8e7c-1f3d5b7a9c2e",
			map[string]any{"conversation_id": conversationID, "sender": string(sender)})
	}
	return model.EtoD()
}

func (r *Repository) ListRecentMessages(ctx context.Context, conversationID string, limit int) ([]chat.Message, error) {
	if _, err := uuid.Parse(conversationID); err != nil {
		return []chat.Message{}, nil
	}

	var models []dbschema.Message
	query := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to list messages", err, "e91b3d57-0a2c-4f68-9d14-7b5e3c2a1f08",
			map[string]any{"conversation_id": conversationID})
	}

	result := make([]chat.Message, len(models))
	for i := range models {
		msg, err := models[i].EtoD()
		if err != nil {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
				"stored message is invalid", err, "5f2a7c9e-1d3b-4e8f-a6c0-b4d2e9f71a35")
		}
		// newest-first from the query, oldest-first in the result
		result[len(models)-1-i] = *msg
	}
	return result, nil
}
