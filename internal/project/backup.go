package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/piwi3910/SlitCut/internal/model"
)

// BackupVersion is written into every backup file.
const BackupVersion = "1.0.0"

// BackupData is the top-level structure for import/export of all application data.
type BackupData struct {
	Version   string          `json:"version"`
	CreatedAt string          `json:"created_at"`
	Config    model.AppConfig `json:"config"`
	Jobs      []model.Job     `json:"jobs"`
}

// ExportAllData bundles the application config and the given jobs into a
// single JSON file at the specified path.
func ExportAllData(exportPath string, config model.AppConfig, jobs []model.Job) error {
	if jobs == nil {
		jobs = []model.Job{}
	}
	backup := BackupData{
		Version:   BackupVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Config:    config,
		Jobs:      jobs,
	}
	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backup data: %w", err)
	}

	dir := filepath.Dir(exportPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	if err := os.WriteFile(exportPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}
	return nil
}

// ImportAllData reads a backup JSON file and returns the contained data.
// The caller is responsible for applying the imported config.
func ImportAllData(importPath string) (BackupData, error) {
	data, err := os.ReadFile(importPath)
	if err != nil {
		return BackupData{}, fmt.Errorf("failed to read backup file: %w", err)
	}
	var backup BackupData
	if err := json.Unmarshal(data, &backup); err != nil {
		return BackupData{}, fmt.Errorf("failed to parse backup file: %w", err)
	}
	if backup.Version == "" {
		return BackupData{}, fmt.Errorf("invalid backup file: missing version field")
	}
	// Ensure RecentJobs is never nil
	if backup.Config.RecentJobs == nil {
		backup.Config.RecentJobs = []string{}
	}
	return backup, nil
}

// RestoreJobs writes every job of a backup into dir as <id>.slitjob and
// returns the written paths.
func RestoreJobs(dir string, backup BackupData) ([]string, error) {
	paths := make([]string, 0, len(backup.Jobs))
	for _, job := range backup.Jobs {
		if job.ID == "" {
			return paths, fmt.Errorf("invalid backup file: job %q has no id", job.Name)
		}
		path := filepath.Join(dir, job.ID+JobExtension)
		if err := SaveJob(path, job); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
