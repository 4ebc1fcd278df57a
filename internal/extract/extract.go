package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"github.com/chethana369/Auto-resume-checker/internal/shared/telemetry"
)

// MediaType is the declared kind of an uploaded document.
type MediaType string

const (
	MediaPDF  MediaType = "pdf"
	MediaDOCX MediaType = "docx"
	MediaText MediaType = "text"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeText = "text/plain"

	wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
)

// Document is an uploaded file held in memory for the duration of one extraction.
type Document struct {
	Name      string
	MediaType MediaType
	Data      []byte
}

// Extract returns the plain text of doc. Bytes that cannot be read under the declared
// media type yield a *DecodeError.
func Extract(ctx context.Context, doc Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var (
		text string
		err  error
	)
	switch doc.MediaType {
	case MediaPDF:
		text, err = extractPDF(doc.Name, doc.Data)
	case MediaDOCX:
		text, err = extractDOCX(doc.Data)
	default:
		text, err = decodePlainText(doc.Data)
	}
	if err != nil {
		return "", &DecodeError{FileName: doc.Name, MediaType: mediaTypeOrText(doc.MediaType), Err: err}
	}
	return text, nil
}

// ExtractBytes resolves the media type from the declared MIME type, the file name and the
// payload, then extracts text.
func ExtractBytes(ctx context.Context, data []byte, mimeType string, fileName string) (string, error) {
	return Extract(ctx, Document{
		Name:      fileName,
		MediaType: ResolveMediaType(mimeType, fileName, data),
		Data:      data,
	})
}

func extractPDF(name string, data []byte) (text string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = fmt.Errorf("pdf parser: %v", rec)
		}
	}()

	if len(data) == 0 {
		return "", errors.New("empty pdf data")
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			telemetry.Debug("extract.pdf.page_skipped", map[string]any{
				"file":   name,
				"page":   i,
				"reason": "page not found",
			})
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// Scanned or content-less pages count as empty.
			telemetry.Debug("extract.pdf.page_skipped", map[string]any{
				"file":   name,
				"page":   i,
				"reason": err.Error(),
			})
			continue
		}
		buf.WriteString(pageText)
	}
	return buf.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty docx data")
	}
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		// The docx reader also requires word/_rels/document.xml.rels, which a valid
		// package may omit when the main part has no relationships.
		raw, zerr := readDocumentPart(data)
		if zerr != nil {
			return "", err
		}
		return joinParagraphs(raw)
	}
	defer doc.Close()

	return joinParagraphs(doc.Editable().GetContent())
}

// readDocumentPart returns word/document.xml straight from the zip package.
func readDocumentPart(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()
		raw, err := io.ReadAll(rc)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	return "", errors.New("word/document.xml not found")
}

// joinParagraphs walks word/document.xml and returns the body paragraphs joined by "\n".
// Paragraphs inside tables and text boxes are not body paragraphs and are skipped.
func joinParagraphs(raw string) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(raw))

	var (
		paragraphs []string
		current    strings.Builder
		skipDepth  int
		paraDepth  int
		runDepth   int
		inText     bool
	)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "tbl", "txbxContent":
				skipDepth++
			case "p":
				if skipDepth == 0 {
					if paraDepth == 0 {
						current.Reset()
					}
					paraDepth++
				}
			case "r":
				runDepth++
			case "t":
				inText = skipDepth == 0 && paraDepth > 0
			case "tab":
				if skipDepth == 0 && paraDepth > 0 && runDepth > 0 {
					current.WriteByte('\t')
				}
			case "br", "cr":
				if skipDepth == 0 && paraDepth > 0 && runDepth > 0 {
					current.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "tbl", "txbxContent":
				if skipDepth > 0 {
					skipDepth--
				}
			case "p":
				if skipDepth == 0 && paraDepth > 0 {
					paraDepth--
					if paraDepth == 0 {
						paragraphs = append(paragraphs, current.String())
					}
				}
			case "r":
				if runDepth > 0 {
					runDepth--
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	return strings.Join(paragraphs, "\n"), nil
}

func decodePlainText(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	return "", fmt.Errorf("invalid UTF-8 sequence at byte offset %d", firstInvalidUTF8(data))
}

func firstInvalidUTF8(data []byte) int {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(data)
}

// ResolveMediaType maps a declared MIME type, file name and payload to a MediaType.
// An explicit PDF or Word MIME type wins; generic binary types are resolved by sniffing and
// by extension; anything else is plain text.
func ResolveMediaType(mimeType string, fileName string, data []byte) MediaType {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	switch clean {
	case MimePDF:
		return MediaPDF
	case MimeDOCX:
		return MediaDOCX
	case "", "application/zip", "application/x-zip-compressed", "application/octet-stream":
	default:
		return MediaText
	}

	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return MediaPDF
	}
	if isWordPackage(data) {
		return MediaDOCX
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return MediaPDF
	case ".docx":
		return MediaDOCX
	default:
		return MediaText
	}
}

func isWordPackage(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			return true
		}
	}
	return false
}

func mediaTypeOrText(mt MediaType) MediaType {
	switch mt {
	case MediaPDF, MediaDOCX:
		return mt
	default:
		return MediaText
	}
}
