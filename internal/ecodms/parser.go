// Package ecodms parses the XML document export produced by ecoDMS.
package ecodms

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"

	"github.com/pweiler/ecodms2paperless/internal/models"
	apperrors "github.com/pweiler/ecodms2paperless/pkg/errors"
)

// Wire types mirror the export structure. Pointers distinguish absent
// attributes and text nodes from empty ones.
type xmlDocuments struct {
	User      *string       `xml:"user,attr"`
	StartID   *string       `xml:"startid,attr"`
	EndID     *string       `xml:"endid,attr"`
	Documents []xmlDocument `xml:"document"`
}

type xmlDocument struct {
	DocID         *string           `xml:"docid,attr"`
	Files         []xmlFile         `xml:"files"`
	ClassifyInfos []xmlClassifyInfo `xml:"classifyInfos>classifyInfo"`
}

type xmlFile struct {
	ID       *string `xml:"id,attr"`
	OrigName *string `xml:"origname,attr"`
	FilePath *string `xml:"filePath,attr"`
}

type xmlClassifyInfo struct {
	ClaDocsID     *string      `xml:"cla_docs_id,attr"`
	RevisionCount *string      `xml:"revision_count,attr"`
	Trashed       *string      `xml:"trashed,attr"`
	Versions      []xmlVersion `xml:"Version"`
}

type xmlVersion struct {
	Ordner             *string `xml:"ordner"`
	Hauptordner        *string `xml:"hauptordner"`
	Bemerkung          *string `xml:"bemerkung"`
	Status             *string `xml:"status"`
	Revision           *string `xml:"revision"`
	Dokumentenart      *string `xml:"dokumentenart"`
	LetzteAenderung    *string `xml:"letzte-änderung"`
	Datum              *string `xml:"datum"`
	BearbeitetVon      *string `xml:"bearbeitet-von"`
	ZurueckgestelltBis *string `xml:"zurückgestellt-bis"`
	ZuBearbeiten       *string `xml:"zu-bearbeiten"`
	ZurAnsicht         *string `xml:"zur-ansicht"`
	Typ                *string `xml:"typ"`
	LaufendeNummer     *string `xml:"laufende-nummer"`
	Steuerrelevant     *string `xml:"steuerrelevant"`
	OrdnerExtkey       *string `xml:"ordner-extkey"`
}

// ParseFile reads and parses the export at path.
func ParseFile(path string) (*models.Documents, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export: %w", err)
	}
	defer f.Close() //nolint:errcheck

	docs, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse export %s: %w", path, err)
	}
	return docs, nil
}

// Parse decodes a whole export tree. Any structural defect is fatal for the
// run; a partially parsed migration is worse than none.
func Parse(r io.Reader) (*models.Documents, error) {
	var raw xmlDocuments
	if err := xml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrMalformedSource.Code, true, "decode export XML")
	}
	return buildDocuments(raw)
}

func buildDocuments(raw xmlDocuments) (*models.Documents, error) {
	user, err := requiredAttr(raw.User, "root", "user")
	if err != nil {
		return nil, err
	}
	startID, err := requiredAttr(raw.StartID, "root", "startid")
	if err != nil {
		return nil, err
	}
	endID, err := requiredAttr(raw.EndID, "root", "endid")
	if err != nil {
		return nil, err
	}

	out := &models.Documents{
		User:      user,
		StartID:   startID,
		EndID:     endID,
		Documents: make([]models.Document, 0, len(raw.Documents)),
	}
	for _, d := range raw.Documents {
		doc, err := buildDocument(d)
		if err != nil {
			return nil, err
		}
		out.Documents = append(out.Documents, *doc)
	}
	return out, nil
}

func buildDocument(raw xmlDocument) (*models.Document, error) {
	docID, err := requiredAttr(raw.DocID, "document", "docid")
	if err != nil {
		return nil, err
	}

	doc := &models.Document{DocID: docID}
	for _, f := range raw.Files {
		file, err := buildFile(f, docID)
		if err != nil {
			return nil, err
		}
		doc.Files = append(doc.Files, *file)
	}
	for _, ci := range raw.ClassifyInfos {
		info, err := buildClassifyInfo(ci, docID)
		if err != nil {
			return nil, err
		}
		doc.ClassifyInfos = append(doc.ClassifyInfos, *info)
	}
	return doc, nil
}

func buildFile(raw xmlFile, docID string) (*models.File, error) {
	id, err := requiredAttr(raw.ID, "files", "id")
	if err != nil {
		return nil, attachDoc(err, docID)
	}
	origName, err := requiredAttr(raw.OrigName, "files", "origname")
	if err != nil {
		return nil, attachDoc(err, docID)
	}
	filePath, err := requiredAttr(raw.FilePath, "files", "filePath")
	if err != nil {
		return nil, attachDoc(err, docID)
	}
	return &models.File{ID: id, OrigName: origName, FilePath: filePath}, nil
}

func buildClassifyInfo(raw xmlClassifyInfo, docID string) (*models.ClassifyInfo, error) {
	claDocsID, err := requiredAttr(raw.ClaDocsID, "classifyInfo", "cla_docs_id")
	if err != nil {
		return nil, attachDoc(err, docID)
	}
	revisionCount, err := requiredAttr(raw.RevisionCount, "classifyInfo", "revision_count")
	if err != nil {
		return nil, attachDoc(err, docID)
	}
	trashed, err := requiredAttr(raw.Trashed, "classifyInfo", "trashed")
	if err != nil {
		return nil, attachDoc(err, docID)
	}

	info := &models.ClassifyInfo{
		ClaDocsID:     claDocsID,
		RevisionCount: revisionCount,
		// Only the literal "true" counts; anything else is not trashed.
		Trashed: trashed == "true",
	}
	for _, v := range raw.Versions {
		info.Versions = append(info.Versions, models.Version(v))
	}
	return info, nil
}

func requiredAttr(v *string, element, attr string) (string, error) {
	if v == nil {
		return "", apperrors.Clonef(apperrors.ErrMalformedSource,
			"element <%s> is missing required attribute %q", element, attr)
	}
	return *v, nil
}

func attachDoc(err error, docID string) error {
	e := apperrors.FromError(err)
	return apperrors.Clonef(e, "document %s: %s", docID, e.Message)
}
