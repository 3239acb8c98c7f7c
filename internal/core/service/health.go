package service

import (
	"context"
	"net/http"

	"github.com/yndnr/minisocial-go/internal/cli/connection"
	"github.com/yndnr/minisocial-go/internal/core/domain"
)

// HealthStatus is the API root response.
type HealthStatus struct {
	Message string `json:"message"`
}

// Health checks that the API answers. No token is needed.
func (m *SessionManager) Health(ctx context.Context) (*HealthStatus, error) {
	var hs HealthStatus
	if _, err := m.execute(ctx, domain.OpHealth, connection.Request{
		Method:  http.MethodGet,
		Path:    PathHealth,
		NoCache: true,
	}, &hs); err != nil {
		return nil, err
	}
	return &hs, nil
}
