//go:build !production

package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/trivia-party/internal/server/storage"
)

// MockArchive 战绩存储 mock
type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) RecordGame(ctx context.Context, rec *storage.GameRecord) (string, error) {
	args := m.Called(ctx, rec)
	return args.String(0), args.Error(1)
}

func (m *MockArchive) GetPlayerStats(ctx context.Context, name string) (*storage.PlayerStats, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.PlayerStats), args.Error(1)
}

func (m *MockArchive) GetLeaderboard(ctx context.Context, typ storage.LeaderboardType, limit int) ([]*storage.LeaderboardEntry, error) {
	args := m.Called(ctx, typ, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*storage.LeaderboardEntry), args.Error(1)
}
