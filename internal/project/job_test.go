package project

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/piwi3910/SlitCut/internal/model"
)

func TestSaveAndLoadJob(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "week42"+JobExtension)

	job := model.NewJob()
	job.Name = "Week 42"
	job.Domain = model.RangeDomain(1000, 1300)
	job.Prices = []model.PriceBreak{{StartWidth: 1000, UnitCost: 4240}, {StartWidth: 1200, UnitCost: 4190}}
	job.Orders = []model.Order{{Label: "A", Grade: "DX51D", Thickness: 1.5, Width: 166, Length: 1000, Count: 3910}}
	job.Settings.MaxPatterns = 4
	job.Settings.TimeLimit = 10 * time.Second

	if err := SaveJob(path, job); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}

	loaded, err := LoadJob(path)
	if err != nil {
		t.Fatalf("LoadJob failed: %v", err)
	}
	if loaded.ID != job.ID {
		t.Errorf("expected ID %s, got %s", job.ID, loaded.ID)
	}
	if loaded.Name != "Week 42" {
		t.Errorf("expected name Week 42, got %s", loaded.Name)
	}
	if loaded.Domain.Min != 1000 || loaded.Domain.Max != 1300 {
		t.Errorf("unexpected domain: %+v", loaded.Domain)
	}
	if len(loaded.Prices) != 2 || loaded.Prices[1].UnitCost != 4190 {
		t.Errorf("unexpected prices: %+v", loaded.Prices)
	}
	if len(loaded.Orders) != 1 || loaded.Orders[0].Count != 3910 {
		t.Errorf("unexpected orders: %+v", loaded.Orders)
	}
	if loaded.Settings.MaxPatterns != 4 || loaded.Settings.TimeLimit != 10*time.Second {
		t.Errorf("unexpected settings: %+v", loaded.Settings)
	}
}

func TestParseJobDefaults(t *testing.T) {
	data := []byte(`{"domain":{"widths":[1000,1200]},"price_breaks":[{"start_width":1000,"unit_cost":1}]}`)

	job, err := ParseJob(data, "orders.json")
	if err != nil {
		t.Fatalf("ParseJob failed: %v", err)
	}
	if job.ID == "" {
		t.Error("expected a generated ID")
	}
	if job.Name != "orders.json" {
		t.Errorf("expected fallback name, got %q", job.Name)
	}
	if job.Orders == nil {
		t.Error("Orders should not be nil")
	}
	if job.Settings.MaxPatterns != model.DefaultSettings().MaxPatterns {
		t.Errorf("expected default max patterns, got %d", job.Settings.MaxPatterns)
	}
	if len(job.Domain.List) != 2 {
		t.Errorf("expected 2 domain widths, got %v", job.Domain.List)
	}
}

func TestLoadJobInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad"+JobExtension)
	if err := os.WriteFile(path, []byte("{not json}"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadJob(path); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestLoadJobMissingFile(t *testing.T) {
	if _, err := LoadJob(filepath.Join(t.TempDir(), "nope"+JobExtension)); err == nil {
		t.Fatal("expected error for missing file")
	}
}
