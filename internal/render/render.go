// Package render holds the two renderer implementations that consume the
// paper model: a paginated PDF path and a reflowable WordprocessingML path.
package render

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/noah-isme/objective-paper-api/internal/models"
)

// Format selects the export artifact type.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatWord Format = "word"
)

// ParseFormat validates an operator-supplied format value.
func ParseFormat(raw string) (Format, bool) {
	switch Format(strings.ToLower(raw)) {
	case FormatPDF:
		return FormatPDF, true
	case FormatWord:
		return FormatWord, true
	}
	return "", false
}

// Renderer converts a paper model into a downloadable artifact.
type Renderer interface {
	Render(model models.PaperModel) ([]byte, error)
	Extension() string
	ContentType() string
}

// decodeDataURL splits a data URL into its binary payload and image subtype
// ("png", "jpeg", "gif"). Only base64-encoded raster payloads are accepted;
// anything else is reported as an error so callers can degrade per policy.
func decodeDataURL(dataURL string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:image/")
	if !ok {
		return nil, "", fmt.Errorf("not an image data url")
	}
	subtype, encoded, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return nil, "", fmt.Errorf("image data url is not base64 encoded")
	}
	subtype = strings.ToLower(subtype)
	switch subtype {
	case "png", "gif":
	case "jpeg", "jpg":
		subtype = "jpeg"
	default:
		return nil, "", fmt.Errorf("unsupported image subtype %q", subtype)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", fmt.Errorf("decode image payload: %w", err)
	}
	return data, subtype, nil
}
