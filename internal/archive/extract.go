// Package archive detects and unwraps the container formats notation
// files ship in: zipped score bundles, xz or gzip compressed documents,
// and plain XML text.
package archive

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/ulikunitz/xz"

	"github.com/notefall/lyrebird/core/errors"
)

// Magic prefixes for the supported container encodings.
var (
	zipMagic  = []byte("PK\x03\x04")
	xzMagic   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
	gzipMagic = []byte{0x1f, 0x8b}
)

// manifestPath is the bundle member that names the score document.
const manifestPath = "META-INF/container.xml"

// scoreExtensions identify the notation document inside a zipped bundle
// when no manifest names one.
var scoreExtensions = []string{".mscx"}

// Extract unwraps raw container bytes down to notation XML text.
// Zipped bundles are resolved through their manifest when present, xz
// and gzip streams are decompressed transparently, and anything else is
// passed through unchanged.
func Extract(raw []byte) (string, error) {
	switch {
	case bytes.HasPrefix(raw, zipMagic):
		return extractBundle(raw)
	case bytes.HasPrefix(raw, xzMagic):
		return decompressXZ(raw)
	case bytes.HasPrefix(raw, gzipMagic):
		return decompressGzip(raw)
	default:
		return string(raw), nil
	}
}

// extractBundle opens a zipped score bundle and returns its notation
// document. The manifest's rootfile wins; without one the first member
// carrying a score extension is used.
func extractBundle(raw []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", &errors.ParseError{Format: "score bundle", Message: "corrupt zip archive", Err: err}
	}

	if name := manifestRootfile(zr); name != "" {
		data, err := readMember(zr, name)
		if err == nil {
			return string(data), nil
		}
		// Manifest points at a missing member; fall back to scanning.
	}

	for _, f := range zr.File {
		if hasScoreExtension(f.Name) {
			data, err := readMember(zr, f.Name)
			if err != nil {
				return "", err
			}
			return string(data), nil
		}
	}
	return "", errors.NewParse("score bundle", "", "no score document in archive")
}

// manifestRootfile returns the member path the bundle manifest points
// at, or "" when the bundle carries no usable manifest. A rootfile with
// a score extension is preferred over other entries.
func manifestRootfile(zr *zip.Reader) string {
	data, err := readMember(zr, manifestPath)
	if err != nil {
		return ""
	}
	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return ""
	}

	var first string
	for _, rf := range xmlquery.Find(doc, "//rootfile") {
		p := rf.SelectAttr("full-path")
		if p == "" {
			continue
		}
		if hasScoreExtension(p) {
			return p
		}
		if first == "" {
			first = p
		}
	}
	return first
}

// readMember reads a single named member out of the bundle.
func readMember(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, errors.NewIO("open", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, errors.NewIO("read", name, err)
		}
		return data, nil
	}
	return nil, errors.NewNotFound("archive member", name)
}

func hasScoreExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range scoreExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func decompressXZ(raw []byte) (string, error) {
	xr, err := xz.NewReader(bytes.NewReader(raw))
	if err != nil {
		return "", &errors.ParseError{Format: "xz stream", Message: "corrupt header", Err: err}
	}
	data, err := io.ReadAll(xr)
	if err != nil {
		return "", &errors.ParseError{Format: "xz stream", Message: "truncated stream", Err: err}
	}
	return string(data), nil
}

func decompressGzip(raw []byte) (string, error) {
	gz, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return "", &errors.ParseError{Format: "gzip stream", Message: "corrupt header", Err: err}
	}
	defer gz.Close()
	data, err := io.ReadAll(gz)
	if err != nil {
		return "", &errors.ParseError{Format: "gzip stream", Message: "truncated stream", Err: err}
	}
	return string(data), nil
}
