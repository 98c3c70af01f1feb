package documents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"documind-backend/internal/shared/storage/object"
	"documind-backend/internal/shared/telemetry"
)

// Service contains business logic for the document registry.
type Service struct {
	Repo           DocumentsRepo
	Store          object.ObjectStore
	PresignExpiry  time.Duration
	StorageTimeout time.Duration
}

// ConfirmInput carries the fields of an upload confirmation.
type ConfirmInput struct {
	DocumentID  string
	StorageKey  string
	FileName    string
	ContentType string
	SizeBytes   int64
}

// Confirm verifies the uploaded bytes exist in storage and creates the
// document record in UPLOADED.
func (s *Service) Confirm(ctx context.Context, userID string, in ConfirmInput) (Document, error) {
	if userID == "" || in.DocumentID == "" || in.StorageKey == "" || in.FileName == "" {
		return Document{}, ErrInvalidInput
	}

	headCtx, cancel := s.storageContext(ctx)
	defer cancel()
	if _, err := s.Store.Head(headCtx, in.StorageKey); err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return Document{}, fmt.Errorf("%w: no object at storage key", ErrNotFound)
		}
		return Document{}, fmt.Errorf("head object: %w", err)
	}

	now := time.Now().UTC()
	doc := Document{
		ID:          in.DocumentID,
		UserID:      userID,
		FileName:    in.FileName,
		StorageKey:  in.StorageKey,
		ContentType: in.ContentType,
		SizeBytes:   in.SizeBytes,
		Status:      StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Get returns one document with optional text/history projection and, when
// the store can presign, a time-limited download URL.
func (s *Service) Get(ctx context.Context, userID, documentID string, opts GetOptions) (Document, string, error) {
	if userID == "" || documentID == "" {
		return Document{}, "", ErrInvalidInput
	}
	doc, err := s.Repo.GetByID(ctx, userID, documentID, opts)
	if err != nil {
		return Document{}, "", err
	}

	downloadURL := ""
	if presigner, ok := s.Store.(object.Presigner); ok {
		url, err := presigner.PresignGet(ctx, doc.StorageKey, s.presignExpiry())
		if err != nil {
			telemetry.Error("documents.presign_get.failed", map[string]any{
				"document_id": documentID,
				"err":         err.Error(),
			})
		} else {
			downloadURL = url
		}
	}
	return doc, downloadURL, nil
}

// List returns the caller's documents, newest first.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]Document, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListByUser(ctx, userID, limit)
}

// Delete removes the stored bytes and then the metadata record. A failure
// after one side succeeded surfaces as ErrPartialDelete rather than a silent
// success; deletion is irreversible.
func (s *Service) Delete(ctx context.Context, userID, documentID string) error {
	if userID == "" || documentID == "" {
		return ErrInvalidInput
	}
	doc, err := s.Repo.GetByID(ctx, userID, documentID, GetOptions{})
	if err != nil {
		return err
	}

	delCtx, cancel := s.storageContext(ctx)
	defer cancel()
	// Nothing has been removed yet at this point, so a failure here is an
	// ordinary storage error, not a half-finished delete.
	if err := s.Store.Delete(delCtx, doc.StorageKey); err != nil {
		return fmt.Errorf("delete stored bytes %s: %w", doc.StorageKey, err)
	}

	if err := s.Repo.Delete(ctx, userID, documentID); err != nil {
		if errors.Is(err, ErrNotFound) {
			// A concurrent delete already removed the record; the bytes are
			// gone either way.
			return nil
		}
		return fmt.Errorf("%w: bytes deleted but record remains: %v", ErrPartialDelete, err)
	}
	return nil
}

func (s *Service) presignExpiry() time.Duration {
	if s.PresignExpiry > 0 {
		return s.PresignExpiry
	}
	return time.Hour
}

func (s *Service) storageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.StorageTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}
