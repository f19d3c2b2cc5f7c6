package services_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/moizayub1255/Tezaabi-Tottay/internal/models"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, id string, update models.UserUpdate) (*models.User, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) GetWatchlist(ctx context.Context, userID string) ([]models.WatchlistEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WatchlistEntry), args.Error(1)
}

func (m *MockUserRepository) AddToWatchlist(ctx context.Context, userID string, entry models.WatchlistEntry) ([]models.WatchlistEntry, error) {
	args := m.Called(ctx, userID, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WatchlistEntry), args.Error(1)
}

func (m *MockUserRepository) RemoveFromWatchlist(ctx context.Context, userID string, contentID models.ContentID) ([]models.WatchlistEntry, error) {
	args := m.Called(ctx, userID, contentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WatchlistEntry), args.Error(1)
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
	err      error
}

type publishedMessage struct {
	Exchange   string
	RoutingKey string
	Body       []byte
}

func (p *recordingPublisher) Publish(exchange, routingKey string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, publishedMessage{Exchange: exchange, RoutingKey: routingKey, Body: body})
	return p.err
}

func (p *recordingPublisher) routingKeys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, 0, len(p.messages))
	for _, m := range p.messages {
		keys = append(keys, m.RoutingKey)
	}
	return keys
}
