package service

import (
	"math"
	"path/filepath"
	"strconv"

	"github.com/pweiler/ecodms2paperless/internal/models"
	apperrors "github.com/pweiler/ecodms2paperless/pkg/errors"
)

// asnAbsent is the sentinel the export uses for a missing running number.
const asnAbsent = "null"

// Tax-relevance codes that mark a document as tax relevant.
const (
	taxCodeRelevant         = "0"
	taxCodeRelevantArchived = "2"
)

// MapDocument projects one source document onto its destination intent. Pure
// function, no I/O. The first version of the first classification record is
// the authoritative metadata; baseDir anchors the export's relative file
// paths.
func MapDocument(doc models.Document, baseDir string) (*models.DocumentIntent, error) {
	if len(doc.ClassifyInfos) == 0 || len(doc.ClassifyInfos[0].Versions) == 0 {
		return nil, apperrors.Clonef(apperrors.ErrIncompleteRecord,
			"document %s has no classification version", doc.DocID)
	}
	if len(doc.Files) == 0 {
		return nil, apperrors.Clonef(apperrors.ErrIncompleteRecord,
			"document %s has no files", doc.DocID)
	}
	version := doc.ClassifyInfos[0].Versions[0]

	asn, err := parseArchiveSerialNumber(version.LaufendeNummer, doc.DocID)
	if err != nil {
		return nil, err
	}

	return &models.DocumentIntent{
		DocID:               doc.DocID,
		FilePath:            filepath.Join(baseDir, doc.Files[0].FilePath),
		Title:               deref(version.Bemerkung),
		Created:             deref(version.Datum),
		Folder:              deref(version.Hauptordner),
		DocumentType:        deref(version.Dokumentenart),
		ArchiveSerialNumber: asn,
		TaxRelevant:         isTaxRelevant(version.Steuerrelevant),
	}, nil
}

// parseArchiveSerialNumber handles the legacy decimal-string storage of the
// running number: "7.0" means 7, "null" (or absence) means no number.
func parseArchiveSerialNumber(raw *string, docID string) (*int, error) {
	if raw == nil || *raw == asnAbsent {
		return nil, nil
	}
	f, err := strconv.ParseFloat(*raw, 64)
	if err != nil {
		return nil, apperrors.Clonef(apperrors.ErrIncompleteRecord,
			"document %s has a non-numeric running number %q", docID, *raw)
	}
	n := int(math.Trunc(f))
	return &n, nil
}

func isTaxRelevant(code *string) bool {
	if code == nil {
		return false
	}
	return *code == taxCodeRelevant || *code == taxCodeRelevantArchived
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
