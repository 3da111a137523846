package extract

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// documentXML mirrors the parts of word/document.xml we read. Tables are
// kept as a fallback for documents whose body text lives in table cells.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
		Tables     []table     `xml:"tbl"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

type table struct {
	Rows []tableRow `xml:"tr"`
}

type tableRow struct {
	Cells []tableCell `xml:"tc"`
}

type tableCell struct {
	Paragraphs []paragraph `xml:"p"`
}

func (x *Extractor) extractDocx(path string) (string, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		// A .doc renamed to .docx lands here: it is not a ZIP archive.
		return "", goerr.Wrap(err, "not a valid .docx archive (only Office 2007+ .docx is supported)")
	}
	defer reader.Close()

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", goerr.Wrap(err, "failed to open word/document.xml")
		}

		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", goerr.Wrap(err, "failed to read word/document.xml")
		}

		return parseDocumentXML(content)
	}

	return "", goerr.New("word/document.xml not found in archive")
}

func parseDocumentXML(content []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", goerr.Wrap(err, "failed to parse document XML")
	}

	var sb strings.Builder
	for _, para := range doc.Body.Paragraphs {
		writeParagraph(&sb, para)
	}

	// Some documents carry all their text in tables.
	if strings.TrimSpace(sb.String()) == "" {
		for _, tbl := range doc.Body.Tables {
			for _, row := range tbl.Rows {
				for _, cell := range row.Cells {
					for _, para := range cell.Paragraphs {
						for _, r := range para.Runs {
							for _, t := range r.Text {
								sb.WriteString(t.Content)
							}
						}
						sb.WriteString(" ")
					}
				}
				sb.WriteString("\n")
			}
		}
	}

	return sb.String(), nil
}

func writeParagraph(sb *strings.Builder, para paragraph) {
	for _, r := range para.Runs {
		for _, t := range r.Text {
			sb.WriteString(t.Content)
		}
	}
	sb.WriteString("\n")
}
