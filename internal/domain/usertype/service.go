package usertype

import (
	"context"
	"fmt"

	"ofsadmin/internal/ofs"
)

// UpdateResult reports one resource's user type change.
type UpdateResult struct {
	ResourceID string `json:"resourceId"`
	Login      string `json:"login,omitempty"`
	Status     int    `json:"status,omitempty"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
}

type Service struct {
	Client *ofs.Client
}

func NewService(client *ofs.Client) *Service {
	return &Service{Client: client}
}

// UpdateByResource resolves the login behind a resource and patches its
// user type.
func (s *Service) UpdateByResource(ctx context.Context, resourceID, userType string) UpdateResult {
	result := UpdateResult{ResourceID: resourceID}

	login, err := s.Client.LoginByResourceID(ctx, resourceID)
	if err != nil {
		result.Error = fmt.Sprintf("lookup failed: %v", err)
		return result
	}
	result.Login = login

	status, err := s.Client.UpdateUserType(ctx, login, userType)
	result.Status = status
	if err != nil {
		result.Error = fmt.Sprintf("update failed: %v", err)
		return result
	}
	result.OK = true
	return result
}

// UpdateBulk applies the same user type to many resources, one at a time.
// Failures are reported per resource, the batch keeps going.
func (s *Service) UpdateBulk(ctx context.Context, resourceIDs []string, userType string) []UpdateResult {
	results := make([]UpdateResult, 0, len(resourceIDs))
	for _, resourceID := range resourceIDs {
		results = append(results, s.UpdateByResource(ctx, resourceID, userType))
	}
	return results
}
