package triage

import "testing"

func TestValidStatus(t *testing.T) {
	for _, status := range []string{StatusOpen, StatusInProgress, StatusResolved} {
		if !ValidStatus(status) {
			t.Fatalf("expected %s to be valid", status)
		}
	}
	for _, status := range []string{"", "done", "OPEN", "closed"} {
		if ValidStatus(status) {
			t.Fatalf("expected %s to be invalid", status)
		}
	}
}

func TestBuildItemsReadsActivityFields(t *testing.T) {
	raw := []map[string]any{
		{
			"apptNumber":       "A-100",
			"resourceId":       "tech001",
			"city":             "Curitiba",
			"customerNumber":   float64(4521),
			"customerName":     "Cliente Um",
			"XA_ORIGIN_BUCKET": "BUCKET_SUL",
			"XA_TSK_NOT":       "cliente ausente",
			"date":             "2026-08-30",
		},
		{"apptNumber": "A-101"},
	}

	items := buildItems(raw)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first.ApptNumber != "A-100" || first.ResourceID != "tech001" || first.City != "Curitiba" {
		t.Fatalf("unexpected first item: %+v", first)
	}
	if first.CustomerNumber != "4521" {
		t.Fatalf("expected numeric customerNumber to be coerced, got %q", first.CustomerNumber)
	}
	if first.NotDoneReason != "cliente ausente" {
		t.Fatalf("unexpected reason: %q", first.NotDoneReason)
	}
	if first.Status != StatusOpen {
		t.Fatalf("expected default status open, got %q", first.Status)
	}

	if items[1].City != "" || items[1].Status != StatusOpen {
		t.Fatalf("unexpected second item: %+v", items[1])
	}
}

func TestMergeEntriesDecoratesTriagedItems(t *testing.T) {
	items := []Item{
		{ApptNumber: "A-100", Status: StatusOpen},
		{ApptNumber: "A-101", Status: StatusOpen},
	}
	entries := map[string]Entry{
		"A-101": {ApptNumber: "A-101", Status: StatusResolved, Note: "reagendado", UpdatedBy: "maria"},
	}

	merged := mergeEntries(items, entries)
	if merged[0].Status != StatusOpen || merged[0].Note != "" {
		t.Fatalf("untriaged item should stay open: %+v", merged[0])
	}
	if merged[1].Status != StatusResolved || merged[1].Note != "reagendado" || merged[1].UpdatedBy != "maria" {
		t.Fatalf("triaged item not merged: %+v", merged[1])
	}
}

func TestParseActivityDate(t *testing.T) {
	if got := ParseActivityDate("2026-08-30"); got == nil || got.Format("2006-01-02") != "2026-08-30" {
		t.Fatalf("unexpected parse result: %v", got)
	}
	if got := ParseActivityDate(""); got != nil {
		t.Fatalf("expected nil for empty value, got %v", got)
	}
	if got := ParseActivityDate("30/08/2026"); got != nil {
		t.Fatalf("expected nil for unsupported layout, got %v", got)
	}
}
