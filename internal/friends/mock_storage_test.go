package friends_test

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a testify mock of storage.Storage.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) AddFriendPair(ctx context.Context, codeA, codeB string) error {
	args := m.Called(codeA, codeB)
	return args.Error(0)
}

func (m *MockStorage) RemoveFriendPair(ctx context.Context, codeA, codeB string) error {
	args := m.Called(codeA, codeB)
	return args.Error(0)
}

func (m *MockStorage) GetFriends(ctx context.Context, code string) ([]string, error) {
	args := m.Called(code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStorage) Close() error {
	return m.Called().Error(0)
}
