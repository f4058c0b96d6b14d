package models

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"time"
)

// ErrorDetail provides detailed error information
type ErrorDetail struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

// Message returns the first non-empty message of the body
func (e ErrorDetail) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Error
}

// FormField is one stringified, non-file field of a multipart upload
type FormField struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// Attachment is a document attached to a verification record
type Attachment interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// FileAttachment is a document read from disk at upload time
type FileAttachment struct {
	Path string
}

// Name returns the base file name
func (f FileAttachment) Name() string {
	return filepath.Base(f.Path)
}

// Open opens the file
func (f FileAttachment) Open() (io.ReadCloser, error) {
	return os.Open(f.Path)
}

// BytesAttachment is an in-memory document
type BytesAttachment struct {
	Filename string
	Data     []byte
}

// Name returns the file name
func (b BytesAttachment) Name() string {
	return b.Filename
}

// Open returns a reader over the data
func (b BytesAttachment) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.Data)), nil
}

// Notification is an entry of the persisted notification list
type Notification struct {
	ID         string    `json:"id" yaml:"id" mapstructure:"id"`
	Title      string    `json:"title" yaml:"title" mapstructure:"title"`
	Message    string    `json:"message" yaml:"message" mapstructure:"message"`
	Type       string    `json:"type" yaml:"type" mapstructure:"type"`
	Read       bool      `json:"read" yaml:"read" mapstructure:"read"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at" mapstructure:"created_at"`
	ActionText string    `json:"action_text,omitempty" yaml:"action_text,omitempty" mapstructure:"action_text"`
}
