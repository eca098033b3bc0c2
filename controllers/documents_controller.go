package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/medportal/medportalbackend/dto"
	"github.com/medportal/medportalbackend/middleware"
	"github.com/medportal/medportalbackend/models"
	"github.com/medportal/medportalbackend/services"
	"github.com/rs/zerolog"
)

// GET /api/documents/:aadhaarNumber
func GetDocuments(docs *services.DocumentService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		documents, err := docs.GetDocuments(c.Request.Context(), c.Param("aadhaarNumber"))
		if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrValidation) {
			c.String(http.StatusNotFound, "No user found with the provided Aadhaar number")
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("get documents failed")
			c.String(http.StatusInternalServerError, "Error retrieving documents")
			return
		}

		c.JSON(http.StatusOK, gin.H{"documents": documents})
	}
}

// POST /api/upload
func UploadDocuments(docs *services.DocumentService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.UploadDocumentsDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.String(http.StatusBadRequest, "Invalid upload request")
			return
		}

		err := docs.UploadDocuments(c.Request.Context(), body.UserID, body.Documents)
		switch {
		case errors.Is(err, models.ErrValidation):
			c.String(http.StatusBadRequest, "Invalid upload request")
			return
		case errors.Is(err, models.ErrNotFound):
			c.String(http.StatusNotFound, "No user found with the provided id")
			return
		case err != nil:
			log.Error().Err(err).Str("account_id", body.UserID).Msg("upload documents failed")
			c.String(http.StatusInternalServerError, "Error uploading documents")
			return
		}

		c.String(http.StatusOK, "Documents uploaded successfully")
	}
}

// POST /api/upload/files
func UploadFiles(docs *services.DocumentService, maxRequestBytes int64, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, _, _ := middleware.CurrentAccount(c)

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBytes)
		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
			return
		}

		refs, err := docs.StoreFiles(c.Request.Context(), accountID, form.File["files"])
		switch {
		case errors.Is(err, models.ErrUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "file uploads are not configured"})
			return
		case errors.Is(err, models.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		case err != nil:
			log.Error().Err(err).Str("account_id", accountID).Msg("store files failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error uploading documents"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"documents": refs})
	}
}
