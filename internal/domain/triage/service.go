package triage

import (
	"context"
	"fmt"
	"time"

	"ofsadmin/internal/ofs"
)

// Item is a notdone activity from OFS decorated with the local triage state.
type Item struct {
	ApptNumber     string `json:"apptNumber"`
	ResourceID     string `json:"resourceId"`
	City           string `json:"city"`
	CustomerNumber string `json:"customerNumber"`
	CustomerName   string `json:"customerName"`
	CustomerPhone  string `json:"customerPhone"`
	OriginBucket   string `json:"originBucket"`
	NotDoneReason  string `json:"notDoneReason"`
	Date           string `json:"date"`

	Status    string `json:"status"`
	Note      string `json:"note"`
	UpdatedBy string `json:"updatedBy"`
}

type Service struct {
	Client *ofs.Client
	Store  *Store
}

func NewService(client *ofs.Client, store *Store) *Service {
	return &Service{Client: client, Store: store}
}

// ListNotDone fetches the live notdone activities and merges in any triage
// state the team already recorded for them.
func (s *Service) ListNotDone(ctx context.Context, q ofs.NotDoneQuery) ([]Item, error) {
	result, err := s.Client.NotDoneActivities(ctx, q)
	if err != nil {
		return nil, err
	}

	items := buildItems(result.Items)
	apptNumbers := make([]string, 0, len(items))
	for _, item := range items {
		if item.ApptNumber != "" {
			apptNumbers = append(apptNumbers, item.ApptNumber)
		}
	}

	entries, err := s.Store.EntriesByAppt(ctx, apptNumbers)
	if err != nil {
		return nil, err
	}
	return mergeEntries(items, entries), nil
}

func (s *Service) Update(ctx context.Context, entry Entry) error {
	if entry.ApptNumber == "" {
		return fmt.Errorf("triage: appointment number is required")
	}
	if !ValidStatus(entry.Status) {
		return fmt.Errorf("triage: invalid status %q", entry.Status)
	}
	return s.Store.Upsert(ctx, entry)
}

func buildItems(raw []map[string]any) []Item {
	items := make([]Item, 0, len(raw))
	for _, activity := range raw {
		items = append(items, Item{
			ApptNumber:     stringField(activity, "apptNumber"),
			ResourceID:     stringField(activity, "resourceId"),
			City:           stringField(activity, "city"),
			CustomerNumber: stringField(activity, "customerNumber"),
			CustomerName:   stringField(activity, "customerName"),
			CustomerPhone:  stringField(activity, "customerPhone"),
			OriginBucket:   stringField(activity, "XA_ORIGIN_BUCKET"),
			NotDoneReason:  stringField(activity, "XA_TSK_NOT"),
			Date:           stringField(activity, "date"),
			Status:         StatusOpen,
		})
	}
	return items
}

func mergeEntries(items []Item, entries map[string]Entry) []Item {
	for i := range items {
		entry, ok := entries[items[i].ApptNumber]
		if !ok {
			continue
		}
		items[i].Status = entry.Status
		items[i].Note = entry.Note
		items[i].UpdatedBy = entry.UpdatedBy
	}
	return items
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return trimFloat(v)
	}
	return ""
}

func trimFloat(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}

// ParseActivityDate converts the OFS activity date (YYYY-MM-DD) for storage.
func ParseActivityDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil
	}
	return &t
}
