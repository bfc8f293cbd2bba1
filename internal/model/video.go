package model

import "time"

// Status is the processing state of a Video.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsTerminal reports whether no further transition happens without a manual rerun.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Video is one uploaded asset.
type Video struct {
	ID           int64      `json:"id" yaml:"id"`
	UserID       int64      `json:"user_id" yaml:"user_id"`
	Title        string     `json:"title" yaml:"title"`
	FilePath     string     `json:"file_path" yaml:"file_path"`
	Duration     float64    `json:"duration" yaml:"duration"` // seconds
	Language     *string    `json:"language,omitempty" yaml:"language,omitempty"`
	Status       Status     `json:"status" yaml:"status"`
	ErrorMessage string     `json:"error_message,omitempty" yaml:"error_message,omitempty"`
	UploadedAt   time.Time  `json:"uploaded_at" yaml:"uploaded_at"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty" yaml:"processed_at,omitempty"`
}

// DetectedLanguage returns the detected source language or "".
func (v *Video) DetectedLanguage() string {
	if v == nil || v.Language == nil {
		return ""
	}
	return *v.Language
}
