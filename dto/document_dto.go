package dto

// UploadDocumentsDTO replaces the full document list of an account.
type UploadDocumentsDTO struct {
	UserID    string   `json:"userId"`
	Documents []string `json:"documents"`
}
