package redis

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/drumline-app/drumline/internal/domain"
)

var (
	testRedisURL   string
	redisContainer testcontainers.Container
)

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	var err error
	redisContainer, err = tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start redis container: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisContainer.Terminate(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to terminate redis container: %v\n", err)
		}
	}()

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get redis endpoint: %v\n", err)
		os.Exit(1)
	}
	testRedisURL = "redis://" + endpoint

	os.Exit(m.Run())
}

func setupSessionRepo(t *testing.T, ttl time.Duration) *SessionRepo {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	client, err := NewClient(ctx, testRedisURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.FlushDB(ctx).Err())

	return NewSessionRepo(client, ttl)
}

func TestSessionRepo_RoundTrip(t *testing.T) {
	repo := setupSessionRepo(t, time.Minute)
	ctx := context.Background()

	principal := domain.Principal{
		ID:           uuid.New(),
		DeclaredRole: domain.RoleTeacher,
		HomeSchoolID: 4,
	}
	sessionID := uuid.NewString()

	require.NoError(t, repo.Put(ctx, sessionID, principal))

	got, err := repo.Get(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, principal, got)
}

func TestSessionRepo_MissingSession(t *testing.T) {
	repo := setupSessionRepo(t, time.Minute)

	_, err := repo.Get(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionRepo_Delete(t *testing.T) {
	repo := setupSessionRepo(t, time.Minute)
	ctx := context.Background()

	sessionID := uuid.NewString()
	require.NoError(t, repo.Put(ctx, sessionID, domain.Principal{
		ID:           uuid.New(),
		DeclaredRole: domain.RoleStudent,
		HomeSchoolID: 1,
	}))

	require.NoError(t, repo.Delete(ctx, sessionID))

	_, err := repo.Get(ctx, sessionID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionRepo_Expiry(t *testing.T) {
	repo := setupSessionRepo(t, time.Second)
	ctx := context.Background()

	sessionID := uuid.NewString()
	require.NoError(t, repo.Put(ctx, sessionID, domain.Principal{
		ID:           uuid.New(),
		DeclaredRole: domain.RoleAdmin,
		HomeSchoolID: 2,
	}))

	time.Sleep(1500 * time.Millisecond)

	_, err := repo.Get(ctx, sessionID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestNewClient_BadURL(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	_, err := NewClient(context.Background(), "redis://127.0.0.1:1")
	assert.Error(t, err)
}
