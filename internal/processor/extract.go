package processor

import (
	"bytes"
	"fmt"
	"strings"

	"docbase/internal/models"

	"github.com/fumiama/go-docx"
	"github.com/ledongthuc/pdf"
)

// ExtractText turns a raw document blob into plain text according to its
// declared type. It reads the input only; nothing is mutated or persisted.
//
//   - pdf: page texts concatenated in document order
//   - doc/docx: paragraph texts joined with newlines
//   - txt/md: decoded verbatim as UTF-8
//
// An unknown type tag returns *UnsupportedFileTypeError; a source that
// cannot be parsed returns *ExtractionError naming the file.
func ExtractText(content []byte, filename string, fileType models.FileType) (string, error) {
	switch fileType {
	case models.FileTypePDF:
		text, err := extractPDF(content)
		if err != nil {
			return "", &ExtractionError{Filename: filename, Err: err}
		}
		return text, nil

	case models.FileTypeDoc, models.FileTypeDocx:
		text, err := extractDocx(content)
		if err != nil {
			return "", &ExtractionError{Filename: filename, Err: err}
		}
		return text, nil

	case models.FileTypeText, models.FileTypeMarkdown:
		return string(content), nil

	default:
		return "", &UnsupportedFileTypeError{FileType: string(fileType)}
	}
}

func extractPDF(content []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read page %d: %w", i, err)
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

func extractDocx(content []byte) (string, error) {
	doc, err := docx.Parse(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to open document: %w", err)
	}

	var paragraphs []string
	for _, item := range doc.Document.Body.Items {
		if para, ok := item.(*docx.Paragraph); ok {
			paragraphs = append(paragraphs, para.String())
		}
	}
	return strings.Join(paragraphs, "\n"), nil
}
