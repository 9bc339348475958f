package models

// DocumentIntent is the destination-side projection of one source document:
// everything the upload needs, before names are resolved to remote ids.
type DocumentIntent struct {
	DocID    string
	FilePath string

	Title        string
	Created      string
	Folder       string
	DocumentType string

	ArchiveSerialNumber *int
	TaxRelevant         bool
}

// CatalogEntry is one row of a remote name catalog (tags, document types).
type CatalogEntry struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
