package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
)

type fakeRepo struct {
	mu            sync.Mutex
	conversations map[string]time.Time
	messages      map[string][]Message
	nextID        uint64
	appendErr     error
	listCalls     int
	// beforeList runs ahead of each ListRecentMessages, outside the lock
	beforeList func()
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		conversations: map[string]time.Time{},
		messages:      map[string][]Message{},
	}
}

func (r *fakeRepo) CreateConversation(_ context.Context) (*Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv := &Conversation{ID: uuid.NewString(), CreatedAt: time.Now()}
	r.conversations[conv.ID] = conv.CreatedAt
	return conv, nil
}

func (r *fakeRepo) ConversationExists(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.conversations[id]
	return ok, nil
}

func (r *fakeRepo) AppendMessage(_ context.Context, conversationID string, sender Sender, text string) (*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return nil, r.appendErr
	}
	if _, ok := r.conversations[conversationID]; !ok {
		return nil, errors.New("conversation does not exist")
	}
	r.nextID++
	msg := Message{ID: r.nextID, ConversationID: conversationID, Sender: sender, Text: text, CreatedAt: time.Now()}
	r.messages[conversationID] = append(r.messages[conversationID], msg)
	return &msg, nil
}

func (r *fakeRepo) ListRecentMessages(_ context.Context, conversationID string, limit int) ([]Message, error) {
	if r.beforeList != nil {
		r.beforeList()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	all := r.messages[conversationID]
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	out := make([]Message, len(all))
	copy(out, all)
	return out, nil
}

type fakeCache struct {
	mu          sync.Mutex
	available   bool
	entries     map[string][]HistoryEntry
	gets        int
	puts        int
	invalidated []string
}

func newFakeCache(available bool) *fakeCache {
	return &fakeCache{available: available, entries: map[string][]HistoryEntry{}}
}

func (c *fakeCache) Get(_ context.Context, id string) CacheLookup {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if !c.available {
		return CacheLookup{Status: CacheUnavailable}
	}
	h, ok := c.entries[id]
	if !ok {
		return CacheLookup{Status: CacheMiss}
	}
	return CacheLookup{Status: CacheHit, History: h}
}

func (c *fakeCache) Put(_ context.Context, id string, history []HistoryEntry, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts++
	if !c.available {
		return
	}
	c.entries[id] = append([]HistoryEntry(nil), history...)
}

func (c *fakeCache) Invalidate(_ context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, id)
	delete(c.entries, id)
}

func (c *fakeCache) IsAvailable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.available
}

type fakeProvider struct {
	CreateFunc func(ctx context.Context, req openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error)
	requests   []openai.ChatCompletionRequest
}

func (p *fakeProvider) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error) {
	p.requests = append(p.requests, req)
	if p.CreateFunc != nil {
		return p.CreateFunc(ctx, req)
	}
	return replyWith("Happy to help!"), nil
}

func replyWith(content string) *openai.ChatCompletionResponse {
	return &openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
		},
	}
}
