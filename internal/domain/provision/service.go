package provision

import (
	"context"
	"fmt"
	"log/slog"

	"ofsadmin/internal/ofs"
)

const (
	OutcomeCreated = "created"
	OutcomeExists  = "exists"
)

// RowResult reports what happened to one row of the import.
type RowResult struct {
	IDSap           string `json:"idSap"`
	Email           string `json:"email"`
	ResourceOutcome string `json:"resourceOutcome"`
	UserOutcome     string `json:"userOutcome"`
	DepositOutcome  string `json:"depositOutcome,omitempty"`
}

type Service struct {
	Client *ofs.Client
}

func NewService(client *ofs.Client) *Service {
	return &Service{Client: client}
}

// Run provisions every row against the creation environment. With apply
// false it only reports what would be sent. Rows are independent; one
// failure does not stop the batch.
func (s *Service) Run(ctx context.Context, rows []Row, apply bool) []RowResult {
	results := make([]RowResult, 0, len(rows))
	for _, row := range rows {
		result := RowResult{IDSap: row.IDSap, Email: row.Email}

		if !apply {
			result.ResourceOutcome = ofs.OutcomeDryRun
			result.UserOutcome = ofs.OutcomeDryRun
			if row.Deposit != "" {
				result.DepositOutcome = ofs.OutcomeDryRun
			}
			results = append(results, result)
			continue
		}

		result.ResourceOutcome = s.createResource(ctx, row)
		result.UserOutcome = s.createUser(ctx, row)
		if row.Deposit != "" {
			result.DepositOutcome = s.setDeposit(ctx, row)
		}
		results = append(results, result)
	}
	return results
}

func (s *Service) createResource(ctx context.Context, row Row) string {
	resp, err := s.Client.CreateResource(ctx, ofs.ResourceSpec{
		IDSap:            row.IDSap,
		ParentResourceID: row.ParentResourceID,
		Name:             row.Name,
		Email:            row.Email,
	})
	return outcome(resp, err, "resource", row.IDSap)
}

func (s *Service) createUser(ctx context.Context, row Row) string {
	resp, err := s.Client.CreateUser(ctx, ofs.UserSpec{
		Email:    row.Email,
		Name:     row.Name,
		IDSap:    row.IDSap,
		UserType: row.UserType,
		Password: row.Password,
	})
	return outcome(resp, err, "user", row.Email)
}

func (s *Service) setDeposit(ctx context.Context, row Row) string {
	resp, err := s.Client.SetResourceDeposit(ctx, row.IDSap, row.Deposit)
	return outcome(resp, err, "deposit", row.IDSap)
}

// outcome maps the creation response to a row outcome. 409 means the
// entity was already there, which the import treats as success.
func outcome(resp *ofs.Response, err error, kind, id string) string {
	if err != nil {
		slog.Warn("provisioning call failed", "kind", kind, "id", id, "err", err)
		return "error:transport"
	}
	switch {
	case resp.OK():
		return OutcomeCreated
	case resp.Status == 409:
		return OutcomeExists
	default:
		slog.Warn("provisioning rejected", "kind", kind, "id", id, "status", resp.Status)
		return fmt.Sprintf("error:%d", resp.Status)
	}
}
