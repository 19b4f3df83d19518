// Package documents implements the document domain: identity document
// files owned by a customer, their blob storage and their quality scores.
package documents

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const entity = "document"

// issueSeparator joins analyzer issues into the stored issues column.
const issueSeparator = "; "

// Document is an identity document file registered for a customer.
// StorageKey is nil for documents registered by URL without an upload.
type Document struct {
	ID           uuid.UUID `json:"id"`
	CustomerID   uuid.UUID `json:"customerId"`
	FileURL      string    `json:"fileUrl"`
	StorageKey   *string   `json:"storageKey"`
	Filename     *string   `json:"filename"`
	ContentType  *string   `json:"contentType"`
	SizeBytes    *int64    `json:"sizeBytes"`
	PageCount    *int      `json:"pageCount"`
	QualityScore *float64  `json:"qualityScore"`
	Issues       *string   `json:"issues"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IssueList splits the stored issues back into individual entries.
func (d Document) IssueList() []string {
	if d.Issues == nil || *d.Issues == "" {
		return []string{}
	}
	return strings.Split(*d.Issues, issueSeparator)
}

// JoinIssues serializes analyzer issues for storage. No issues is stored
// as an empty string, distinct from a document that was never analyzed.
func JoinIssues(issues []string) string {
	return strings.Join(issues, issueSeparator)
}

// CreateCommand registers a document by reference.
type CreateCommand struct {
	ID           *uuid.UUID `json:"id"`
	CustomerID   *uuid.UUID `json:"customerId" validate:"required"`
	FileURL      string     `json:"fileUrl" validate:"required,max=2048"`
	Filename     *string    `json:"filename" validate:"omitempty,max=255"`
	ContentType  *string    `json:"contentType" validate:"omitempty,max=255"`
	QualityScore *float64   `json:"qualityScore" validate:"omitnil,gte=0"`
	Issues       *string    `json:"issues" validate:"omitempty,max=4000"`
}

// UpdateCommand replaces every editable field.
type UpdateCommand struct {
	ID           *uuid.UUID `json:"id"`
	CustomerID   *uuid.UUID `json:"customerId" validate:"required"`
	FileURL      string     `json:"fileUrl" validate:"required,max=2048"`
	Filename     *string    `json:"filename" validate:"omitempty,max=255"`
	ContentType  *string    `json:"contentType" validate:"omitempty,max=255"`
	QualityScore *float64   `json:"qualityScore" validate:"omitnil,gte=0"`
	Issues       *string    `json:"issues" validate:"omitempty,max=4000"`
}

// PatchCommand changes only the fields that are present.
type PatchCommand struct {
	ID           *uuid.UUID `json:"id"`
	CustomerID   *uuid.UUID `json:"customerId"`
	FileURL      *string    `json:"fileUrl" validate:"omitnil,min=1,max=2048"`
	Filename     *string    `json:"filename" validate:"omitempty,max=255"`
	ContentType  *string    `json:"contentType" validate:"omitempty,max=255"`
	QualityScore *float64   `json:"qualityScore" validate:"omitnil,gte=0"`
	Issues       *string    `json:"issues" validate:"omitempty,max=4000"`
}

// UploadCommand carries an uploaded file for a customer. PageCount is set
// for PDFs.
type UploadCommand struct {
	CustomerID  uuid.UUID
	Data        []byte
	Filename    string
	ContentType string
	PageCount   *int
}
