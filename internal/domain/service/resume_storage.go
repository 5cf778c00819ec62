package service

import (
	"context"
	"io"
)

// ResumeStorage keeps uploaded resumes. Writing an existing key replaces the object.
type ResumeStorage interface {
	Save(ctx context.Context, key string, content io.Reader, contentType string) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}
