package render

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func unpackDocx(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	parts := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		parts[f.Name] = content
	}
	return parts
}

func TestDocxRendererPackageShape(t *testing.T) {
	r := NewDocxRenderer(nil)
	data, err := r.Render(paperModel(false))
	require.NoError(t, err)

	parts := unpackDocx(t, data)
	require.Contains(t, parts, "[Content_Types].xml")
	require.Contains(t, parts, "_rels/.rels")
	require.Contains(t, parts, "word/document.xml")
	require.Contains(t, parts, "word/_rels/document.xml.rels")
}

func TestDocxRendererRowsCannotSplit(t *testing.T) {
	r := NewDocxRenderer(nil)
	data, err := r.Render(paperModel(false))
	require.NoError(t, err)

	doc := string(unpackDocx(t, data)["word/document.xml"])
	require.Equal(t, 20, strings.Count(doc, "<w:cantSplit/>"))
	// One repeating header row per section table.
	require.Equal(t, 2, strings.Count(doc, "<w:tblHeader/>"))
}

func TestDocxRendererHeaderContent(t *testing.T) {
	r := NewDocxRenderer(nil)
	data, err := r.Render(paperModel(false))
	require.NoError(t, err)

	doc := string(unpackDocx(t, data)["word/document.xml"])
	require.Contains(t, doc, "Mid I")
	require.Contains(t, doc, "Subject Code: CS305")
	require.Contains(t, doc, "(R22 Regulation)")
	require.Contains(t, doc, "****ALL THE BEST****")
	require.Contains(t, doc, "Times New Roman")
}

func TestDocxRendererFallbackLogoEmbedded(t *testing.T) {
	r := NewDocxRenderer(nil)
	data, err := r.Render(paperModel(false))
	require.NoError(t, err)

	parts := unpackDocx(t, data)
	require.Contains(t, parts, "word/media/image1.png")
	require.Equal(t, fallbackLogo(), parts["word/media/image1.png"])
}

func TestDocxRendererProvidedLogoWins(t *testing.T) {
	logo, _, err := decodeDataURL(tinyPNGDataURL)
	require.NoError(t, err)

	r := NewDocxRenderer(logo)
	data, err := r.Render(paperModel(false))
	require.NoError(t, err)

	parts := unpackDocx(t, data)
	require.Equal(t, logo, parts["word/media/image1.png"])
}

func TestDocxRendererQuestionImageEmbedded(t *testing.T) {
	r := NewDocxRenderer(nil)
	data, err := r.Render(paperModel(true))
	require.NoError(t, err)

	parts := unpackDocx(t, data)
	// Media slot 1 is the logo, slot 2 the first question image.
	require.Contains(t, parts, "word/media/image2.png")

	rels := string(parts["word/_rels/document.xml.rels"])
	require.Contains(t, rels, `Id="rId2"`)
	require.Contains(t, rels, `Target="media/image2.png"`)

	doc := string(parts["word/document.xml"])
	require.Contains(t, doc, `r:embed="rId2"`)
	require.NotContains(t, doc, "[Image could not be loaded]")
}

func TestDocxRendererBadImageDegradesToPlaceholderText(t *testing.T) {
	model := paperModel(false)
	model.Blocks[3].QuestionRow.ImageDataURL = str("data:image/png;base64,not-base64!!!")

	r := NewDocxRenderer(nil)
	data, err := r.Render(model)
	require.NoError(t, err)

	doc := string(unpackDocx(t, data)["word/document.xml"])
	require.Contains(t, doc, "[Image could not be loaded]")
}

func TestDocxRendererEscapesQuestionText(t *testing.T) {
	model := paperModel(false)
	model.Blocks[3].QuestionRow.Question = `Is a < b && "b" > c?`

	r := NewDocxRenderer(nil)
	data, err := r.Render(model)
	require.NoError(t, err)

	doc := string(unpackDocx(t, data)["word/document.xml"])
	require.Contains(t, doc, "Is a &lt; b &amp;&amp; &#34;b&#34; &gt; c?")
}

func TestFallbackLogoDecodes(t *testing.T) {
	logo := fallbackLogo()
	require.NotEmpty(t, logo)
	require.True(t, decodableImage(logo))
	require.Equal(t, "PNG", sniffImageType(logo))
}
