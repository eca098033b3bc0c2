// Package storage uploads document files to object storage and returns the
// public URL that becomes the stored document reference.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/medportal/medportalbackend/utils"
)

type BlobStore interface {
	// Put stores body under objectName and returns its public URL.
	Put(ctx context.Context, objectName, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, objectNames []string) error
}

// DocumentObjectName builds a unique object name for an account's file:
// documents/<accountID>/<unix>-<uuid>-<slug><ext>.
func DocumentObjectName(accountID, fileName string) string {
	slug, ext := utils.FileNameSlug(fileName)
	if ext == "" {
		ext = ".bin"
	}
	return fmt.Sprintf("documents/%s/%d-%s-%s%s",
		accountID, time.Now().UTC().Unix(), uuid.NewString(), slug, ext)
}
