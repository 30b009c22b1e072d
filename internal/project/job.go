package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/piwi3910/SlitCut/internal/model"
)

// JobExtension is the conventional extension of job files.
const JobExtension = ".slitjob"

// SaveJob writes a job, including any results, to path as indented JSON.
func SaveJob(path string, job model.Job) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create job directory: %w", err)
	}
	data, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadJob reads a job file. Jobs written without an ID get a fresh one and
// a missing name falls back to the file name.
func LoadJob(path string) (model.Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Job{}, fmt.Errorf("failed to read job file: %w", err)
	}
	return ParseJob(data, filepath.Base(path))
}

// ParseJob decodes job JSON. Settings absent from the document keep their
// defaults.
func ParseJob(data []byte, fallbackName string) (model.Job, error) {
	job := model.Job{Settings: model.DefaultSettings()}
	if err := json.Unmarshal(data, &job); err != nil {
		return model.Job{}, fmt.Errorf("failed to parse job: %w", err)
	}
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.Name == "" {
		job.Name = fallbackName
	}
	if job.Orders == nil {
		job.Orders = []model.Order{}
	}
	return job, nil
}
