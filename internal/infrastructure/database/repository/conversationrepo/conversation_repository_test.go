package conversationrepo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/janhq/support-chat/internal/domain/chat"
	"github.com/janhq/support-chat/internal/infrastructure/database/dbschema"
	"github.com/janhq/support-chat/internal/utils/platformerrors"
)

func setupRepo(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&dbschema.Conversation{}, &dbschema.Message{}))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	repo := NewConversationRepository(db).(*Repository)
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return repo, db
}

func TestCreateConversationAndExists(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupRepo(t)

	conv, err := repo.CreateConversation(ctx)
	require.NoError(t, err)
	_, err = uuid.Parse(conv.ID)
	require.NoError(t, err)

	exists, err := repo.ConversationExists(ctx, conv.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ConversationExists(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = repo.ConversationExists(ctx, "not-a-uuid")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAppendAndListRecentMessages(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupRepo(t)

	conv, err := repo.CreateConversation(ctx)
	require.NoError(t, err)
	other, err := repo.CreateConversation(ctx)
	require.NoError(t, err)

	texts := []string{"one", "two", "three", "four", "five"}
	for i, text := range texts {
		sender := chat.SenderUser
		if i%2 == 1 {
			sender = chat.SenderAI
		}
		msg, err := repo.AppendMessage(ctx, conv.ID, sender, text)
		require.NoError(t, err)
		assert.NotZero(t, msg.ID)
		assert.Equal(t, sender, msg.Sender)
	}
	_, err = repo.AppendMessage(ctx, other.ID, chat.SenderUser, "unrelated")
	require.NoError(t, err)

	all, err := repo.ListRecentMessages(ctx, conv.ID, 200)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i, msg := range all {
		assert.Equal(t, texts[i], msg.Text, "oldest first")
	}

	recent, err := repo.ListRecentMessages(ctx, conv.ID, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "four", recent[0].Text)
	assert.Equal(t, "five", recent[1].Text)
}

func TestListRecentMessages_TiesBrokenByID(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupRepo(t)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	conv, err := repo.CreateConversation(ctx)
	require.NoError(t, err)
	for _, text := range []string{"a", "b", "c"} {
		_, err := repo.AppendMessage(ctx, conv.ID, chat.SenderUser, text)
		require.NoError(t, err)
	}

	msgs, err := repo.ListRecentMessages(ctx, conv.ID, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "b", msgs[0].Text)
	assert.Equal(t, "c", msgs[1].Text)
}

func TestListRecentMessages_UnknownOrMalformed(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupRepo(t)

	msgs, err := repo.ListRecentMessages(ctx, uuid.NewString(), 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	msgs, err = repo.ListRecentMessages(ctx, "garbage", 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestListRecentMessages_RejectsUnknownSender(t *testing.T) {
	ctx := context.Background()
	repo, db := setupRepo(t)

	conv, err := repo.CreateConversation(ctx)
	require.NoError(t, err)
	require.NoError(t, db.Create(&dbschema.Message{
		ConversationID: conv.ID,
		Sender:         "system",
		Text:           "injected",
		CreatedAt:      time.Now().UTC(),
	}).Error)

	_, err = repo.ListRecentMessages(ctx, conv.ID, 10)
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeDatabaseError))
}

func TestStoreFailureIsDatabaseError(t *testing.T) {
	ctx := context.Background()
	repo, db := setupRepo(t)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = repo.CreateConversation(ctx)
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeDatabaseError))

	_, err = repo.AppendMessage(ctx, uuid.NewString(), chat.SenderUser, "hello")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeDatabaseError))
}
