// Package models defines types shared across internal packages.
package models

import "time"

// RawEntry is one object in the remote contents listing. The JSON field
// names match the GitHub contents API so listings can be decoded and
// cached without translation.
type RawEntry struct {
	Name        string `json:"name"`
	SHA         string `json:"sha"`
	DownloadURL string `json:"download_url"`
	Size        int64  `json:"size"`
	HTMLURL     string `json:"html_url,omitempty"`
}

// UploadState is a step of the upload state machine.
type UploadState string

const (
	UploadPending   UploadState = "pending"
	UploadUploading UploadState = "uploading"
	UploadRetrying  UploadState = "retrying"
	UploadCompleted UploadState = "completed"
	UploadFailed    UploadState = "failed"
)

// Terminal reports whether no further transitions follow s.
func (s UploadState) Terminal() bool {
	return s == UploadCompleted || s == UploadFailed
}

// UploadRecord is the journal entry for one upload. It is rewritten on
// every transition so an interrupted process leaves a non-terminal
// record behind.
type UploadRecord struct {
	ID        string      `json:"id" yaml:"id"`
	Name      string      `json:"name" yaml:"name"`
	State     UploadState `json:"state" yaml:"state"`
	Attempts  int         `json:"attempts" yaml:"attempts"`
	Size      int64       `json:"size" yaml:"size"`
	Error     string      `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt time.Time   `json:"started_at" yaml:"started_at"`
	UpdatedAt time.Time   `json:"updated_at" yaml:"updated_at"`
}
