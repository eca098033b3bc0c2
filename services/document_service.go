package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/medportal/medportalbackend/events"
	"github.com/medportal/medportalbackend/models"
	"github.com/medportal/medportalbackend/storage"
	"github.com/medportal/medportalbackend/utils"
	"github.com/rs/zerolog"
)

const (
	MaxDocumentsPerAccount = 100
	maxReferenceLength     = 2048
	MaxFilesPerUpload      = 10
)

type DocumentService struct {
	accounts  AccountStore
	blobs     storage.BlobStore
	validator *utils.FileValidator
	publisher events.Publisher
	log       zerolog.Logger
}

// NewDocumentService builds the document service. blobs may be nil, in which
// case StoreFiles reports ErrUnavailable.
func NewDocumentService(accounts AccountStore, blobs storage.BlobStore, validator *utils.FileValidator, publisher events.Publisher, log zerolog.Logger) *DocumentService {
	return &DocumentService{
		accounts:  accounts,
		blobs:     blobs,
		validator: validator,
		publisher: publisher,
		log:       log,
	}
}

// GetDocuments returns the documents of the user with the given national
// ID, or an empty slice when none were uploaded.
func (s *DocumentService) GetDocuments(ctx context.Context, nationalID string) ([]string, error) {
	if strings.TrimSpace(nationalID) == "" {
		return nil, fmt.Errorf("%w: national id is required", models.ErrValidation)
	}

	account, err := s.accounts.FindByNationalID(ctx, nationalID)
	if err != nil {
		return nil, err
	}
	if account.Documents == nil {
		return []string{}, nil
	}
	return account.Documents, nil
}

// UploadDocuments replaces the account's documents with documents. Callers
// send the complete set, not a delta.
func (s *DocumentService) UploadDocuments(ctx context.Context, accountID string, documents []string) error {
	if err := validateDocuments(accountID, documents); err != nil {
		return err
	}

	if err := s.accounts.ReplaceDocuments(ctx, accountID, documents); err != nil {
		return err
	}

	s.publish(ctx, events.New(events.DocumentsUploaded, accountID, map[string]any{"count": len(documents)}))
	return nil
}

// StoreFiles validates and uploads files to the blob store and returns their
// references. The account itself is not modified.
func (s *DocumentService) StoreFiles(ctx context.Context, accountID string, files []*multipart.FileHeader) ([]string, error) {
	if s.blobs == nil {
		return nil, models.ErrUnavailable
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: at least one file is required", models.ErrValidation)
	}
	if len(files) > MaxFilesPerUpload {
		return nil, fmt.Errorf("%w: at most %d files per upload", models.ErrValidation, MaxFilesPerUpload)
	}

	mimes := make([]string, len(files))
	for i, fh := range files {
		mime, err := s.validator.ValidateFile(fh)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", models.ErrValidation, fh.Filename, err)
		}
		mimes[i] = mime
	}

	refs := make([]string, 0, len(files))
	uploaded := make([]string, 0, len(files))
	for i, fh := range files {
		objectName := storage.DocumentObjectName(accountID, fh.Filename)
		ref, err := s.put(ctx, objectName, mimes[i], fh)
		if err != nil {
			if cerr := s.blobs.Delete(ctx, uploaded); cerr != nil {
				s.log.Warn().Err(cerr).Strs("objects", uploaded).Msg("cleanup after failed upload")
			}
			return nil, fmt.Errorf("%w: %w", models.ErrStorage, err)
		}
		uploaded = append(uploaded, objectName)
		refs = append(refs, ref)
	}
	return refs, nil
}

func (s *DocumentService) put(ctx context.Context, objectName, mime string, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return s.blobs.Put(ctx, objectName, mime, f)
}

func validateDocuments(accountID string, documents []string) error {
	var problems []string
	if strings.TrimSpace(accountID) == "" {
		problems = append(problems, "userId is required")
	}
	switch {
	case documents == nil:
		problems = append(problems, "documents is required")
	case len(documents) > MaxDocumentsPerAccount:
		problems = append(problems, fmt.Sprintf("at most %d documents are allowed", MaxDocumentsPerAccount))
	}
	for i, d := range documents {
		if strings.TrimSpace(d) == "" {
			problems = append(problems, fmt.Sprintf("documents[%d] is empty", i))
		} else if len(d) > maxReferenceLength {
			problems = append(problems, fmt.Sprintf("documents[%d] is too long", i))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", models.ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}

func (s *DocumentService) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.log.Warn().Err(err).Str("event", e.Name).Str("account_id", e.AccountID).Msg("event publish failed")
	}
}
