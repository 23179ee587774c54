package services

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// EmbeddedText sniffs the true file type from bytes and pulls any text the
// file already carries, without OCR. Supported: PDF text layers, HTML, TXT/MD.
// Image formats return ("", nil): they have no embedded text and the caller
// is expected to fall through to OCR.
func EmbeddedText(originalName string, mimeType string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	mt := strings.ToLower(strings.TrimSpace(mimeType))

	if len(data) == 0 {
		return "", fmt.Errorf("empty file: name=%s mime=%s", originalName, mimeType)
	}

	// 1) Sniff by magic bytes first (most reliable)
	if isPDF(data) {
		return extractPDFText(data)
	}
	if isImage(data) {
		return "", nil
	}

	// 2) Sniff as HTML
	if looksLikeHTML(data) || mt == "text/html" || ext == ".html" || ext == ".htm" {
		return stripHTMLTags(string(data)), nil
	}

	// 3) Sniff as plaintext (very common for .md/.txt)
	if isProbablyText(data) || mt == "text/plain" || ext == ".txt" || ext == ".md" || ext == ".markdown" {
		return collapseWhitespace(string(data)), nil
	}

	// 4) If mime/ext claim pdf but magic bytes disagree, the upload is corrupted.
	if mt == "application/pdf" || ext == ".pdf" {
		return "", fmt.Errorf("file claims pdf but missing %%PDF header: name=%s mime=%s head=%s", originalName, mimeType, firstBytesHex(data, 16))
	}
	if strings.HasPrefix(mt, "image/") || ext == ".jpg" || ext == ".jpeg" || ext == ".png" || ext == ".webp" || ext == ".tiff" || ext == ".tif" || ext == ".bmp" {
		// claimed image with unrecognized magic; let OCR decide
		return "", nil
	}

	// 5) Unknown binary
	return "", fmt.Errorf("unsupported file type: name=%s ext=%s mime=%s head=%s", originalName, ext, mimeType, firstBytesHex(data, 16))
}

// ------------------------
// Sniff helpers
// ------------------------

func isPDF(b []byte) bool {
	// PDF starts with "%PDF-"
	return len(b) >= 5 && string(b[:5]) == "%PDF-"
}

func isImage(b []byte) bool {
	if len(b) >= 3 && b[0] == 0xFF && b[1] == 0xD8 && b[2] == 0xFF {
		return true // JPEG
	}
	if len(b) >= 8 && bytes.Equal(b[:8], []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}) {
		return true // PNG
	}
	if len(b) >= 12 && string(b[:4]) == "RIFF" && string(b[8:12]) == "WEBP" {
		return true // WEBP
	}
	if len(b) >= 4 && (string(b[:4]) == "II*\x00" || string(b[:4]) == "MM\x00*") {
		return true // TIFF
	}
	if len(b) >= 2 && b[0] == 'B' && b[1] == 'M' {
		return true // BMP
	}
	return false
}

func looksLikeHTML(b []byte) bool {
	// cheap heuristic: starts with "<" or contains "<html" in early bytes
	s := strings.ToLower(string(b[:min(len(b), 2048)]))
	if strings.HasPrefix(strings.TrimSpace(s), "<!doctype") {
		return true
	}
	if strings.HasPrefix(strings.TrimSpace(s), "<html") {
		return true
	}
	if strings.Contains(s, "<html") && strings.Contains(s, "</html>") {
		return true
	}
	return false
}

func isProbablyText(b []byte) bool {
	// Heuristic: if most bytes are printable / whitespace and no NULs.
	sample := b[:min(len(b), 4096)]
	nul := 0
	good := 0
	for _, c := range sample {
		if c == 0x00 {
			nul++
			continue
		}
		if c == '\n' || c == '\r' || c == '\t' || (c >= 0x20 && c <= 0x7E) || c >= 0x80 {
			good++
		}
	}
	if nul > 0 {
		return false
	}
	// allow some binary noise
	return float64(good)/float64(len(sample)) > 0.9
}

func firstBytesHex(b []byte, n int) string {
	n = min(len(b), n)
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 0, n*2)
	for i := 0; i < n; i++ {
		out = append(out, hexdigits[b[i]>>4], hexdigits[b[i]&0x0f])
	}
	return string(out)
}

// ------------------------
// Extractors
// ------------------------

func extractPDFText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf plaintext: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("pdf read: %w", err)
	}
	return collapseWhitespace(string(b)), nil
}

var htmlTagRe = regexp.MustCompile(`(?s)<[^>]*>`)

func stripHTMLTags(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	return collapseWhitespace(s)
}

func collapseWhitespace(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
