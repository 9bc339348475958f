package models

// Version is one classification snapshot of a source document. Every field is
// optional in the export; nil means the text node was absent, which is
// distinct from an empty element.
type Version struct {
	Ordner             *string
	Hauptordner        *string
	Bemerkung          *string
	Status             *string
	Revision           *string
	Dokumentenart      *string
	LetzteAenderung    *string
	Datum              *string
	BearbeitetVon      *string
	ZurueckgestelltBis *string
	ZuBearbeiten       *string
	ZurAnsicht         *string
	Typ                *string
	LaufendeNummer     *string
	Steuerrelevant     *string
	OrdnerExtkey       *string
}

// ClassifyInfo groups the ordered classification versions of a document.
// Trashed is true only when the export attribute is the literal "true".
type ClassifyInfo struct {
	ClaDocsID     string
	RevisionCount string
	Trashed       bool
	Versions      []Version
}

// File points at one binary belonging to a document. FilePath is relative to
// the directory containing the export file.
type File struct {
	ID       string
	OrigName string
	FilePath string
}

// Document is one ecoDMS document with its files and classification records.
type Document struct {
	DocID         string
	Files         []File
	ClassifyInfos []ClassifyInfo
}

// Documents is the root aggregate of an export.
type Documents struct {
	User      string
	StartID   string
	EndID     string
	Documents []Document
}
