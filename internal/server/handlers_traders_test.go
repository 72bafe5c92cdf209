package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eyupilis/trading-platform/internal/domain"
)

func TestGetTrader(t *testing.T) {
	id := uuid.New()
	repo := &mockUserRepo{
		getByIDFn: func(ctx context.Context, got uuid.UUID) (*domain.User, error) {
			require.Equal(t, id, got)
			return &domain.User{
				ID:        id,
				Username:  "satoshi",
				Role:      domain.RoleTrader,
				CreatedAt: time.Now(),
			}, nil
		},
	}
	srv := newTestServer(t, Dependencies{Users: repo})

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/traders/"+id.String(), nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	user := decodeJSON[domain.User](t, rec)
	assert.Equal(t, "satoshi", user.Username)
	assert.Equal(t, domain.RoleTrader, user.Role)
}

func TestGetTrader_UnknownID(t *testing.T) {
	repo := &mockUserRepo{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.User, error) {
			return nil, domain.ErrUserNotFound
		},
	}
	srv := newTestServer(t, Dependencies{Users: repo})

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/traders/"+uuid.NewString(), nil, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetTrader_SubscriberIsHidden(t *testing.T) {
	repo := &mockUserRepo{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.User, error) {
			return &domain.User{ID: id, Username: "lurker", Role: domain.RoleSubscriber}, nil
		},
	}
	srv := newTestServer(t, Dependencies{Users: repo})

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/traders/"+uuid.NewString(), nil, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetTrader_InvalidID(t *testing.T) {
	srv := newTestServer(t, Dependencies{Users: &mockUserRepo{}})

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/traders/not-a-uuid", nil, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
