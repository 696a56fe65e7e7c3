package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Content types accepted as already-compressed archives. Uploads with one of
// these are moved into the store verbatim, with no re-compression.
var archiveContentTypes = map[string]bool{
	"application/zip":              true,
	"application/x-zip-compressed": true,
}

func IsArchiveContentType(contentType string) bool {
	return archiveContentTypes[strings.ToLower(contentType)]
}

// Template is a stored software-template archive plus its descriptive
// metadata. Records are write-once: no field ever changes after Insert.
type Template struct {
	ID           uuid.UUID `json:"id"`
	Category     string    `json:"category"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Owner        string    `json:"owner"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	CreatedBy    string    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	Path         string    `json:"path"`
}

// DownloadName derives the attachment filename for a stored template from
// its caller-supplied original name, enforcing a single .zip suffix.
func (t *Template) DownloadName() string {
	name := t.OriginalName
	if strings.HasSuffix(strings.ToLower(name), ".zip") {
		name = name[:len(name)-len(".zip")]
	}
	return name + ".zip"
}

// Principal is the pre-resolved identity of an authenticated caller. How it
// was established (OIDC, JWT, test stub) is the transport layer's business;
// the service layer only ever records UserRef as the uploader.
type Principal struct {
	UserRef string
	Email   string
}
