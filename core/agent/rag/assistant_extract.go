package rag

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// textExtensions are the file types read as plain text.
var textExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".json": true,
	".csv":  true,
	".py":   true,
	".js":   true,
	".html": true,
	".xml":  true,
}

// IsTextFile reports whether a filename has a plain-text extension.
func IsTextFile(filename string) bool {
	return textExtensions[strings.ToLower(filepath.Ext(filename))]
}

// ExtractFileText pulls readable text out of a file by extension. PDF and
// DOCX get format-aware extraction; text extensions are decoded as UTF-8;
// anything else is treated as binary.
func ExtractFileText(filename string, content []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case ext == ".pdf":
		return extractPDF(content)
	case ext == ".docx":
		return extractDOCX(content)
	case textExtensions[ext]:
		if !strings.Contains(string(content), "\x00") {
			return strings.ToValidUTF8(string(content), ""), nil
		}
		return "", fmt.Errorf("file %s contains non-text data", filename)
	default:
		return "", fmt.Errorf("unsupported file type: %s", ext)
	}
}

func extractPDF(content []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to open docx: %w", err)
	}

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()

		var b strings.Builder
		decoder := xml.NewDecoder(rc)
		inText := false
		for {
			tok, err := decoder.Token()
			if err != nil {
				break
			}
			switch el := tok.(type) {
			case xml.StartElement:
				if el.Name.Local == "t" {
					inText = true
				}
				if el.Name.Local == "p" && b.Len() > 0 {
					b.WriteString("\n")
				}
			case xml.EndElement:
				if el.Name.Local == "t" {
					inText = false
				}
			case xml.CharData:
				if inText {
					b.Write(el)
				}
			}
		}
		return b.String(), nil
	}
	return "", fmt.Errorf("docx missing document body")
}
