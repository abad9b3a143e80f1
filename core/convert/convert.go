// Package convert wires container extraction, native score parsing, and
// MusicXML emission into a single pipeline. Each call runs the three
// stages exactly once and holds no state between calls.
package convert

import (
	"encoding/hex"

	"github.com/zeebo/blake3"

	"github.com/notefall/lyrebird/core/mscore"
	"github.com/notefall/lyrebird/core/musicxml"
	"github.com/notefall/lyrebird/core/score"
	"github.com/notefall/lyrebird/internal/archive"
	"github.com/notefall/lyrebird/internal/logging"
)

// Result carries everything a single conversion produced.
type Result struct {
	XML        string       // MusicXML partwise document
	Score      *score.Score // parsed intermediate form
	SourceHash string       // BLAKE3 fingerprint of the raw input
}

// Convert runs the full pipeline on raw container bytes and returns the
// MusicXML document.
func Convert(raw []byte) (string, error) {
	res, err := ConvertFull(raw)
	if err != nil {
		return "", err
	}
	return res.XML, nil
}

// ConvertScore renders an already-parsed score to MusicXML.
func ConvertScore(s *score.Score) (string, error) {
	return musicxml.Build(s)
}

// ParseScore unwraps raw container bytes and parses the notation inside,
// stopping before MusicXML emission.
func ParseScore(raw []byte) (*score.Score, error) {
	text, err := archive.Extract(raw)
	if err != nil {
		logging.ConversionError("extract", "", err)
		return nil, err
	}
	s, err := mscore.ParseBytes([]byte(text))
	if err != nil {
		logging.ConversionError("parse", "", err)
		return nil, err
	}
	return s, nil
}

// ConvertFull runs the pipeline and returns the document together with
// the intermediate score and the source fingerprint.
func ConvertFull(raw []byte) (*Result, error) {
	s, err := ParseScore(raw)
	if err != nil {
		return nil, err
	}
	xml, err := musicxml.Build(s)
	if err != nil {
		logging.ConversionError("build", "", err)
		return nil, err
	}
	logging.ConversionEvent("convert", "",
		"parts", len(s.Parts),
		"bytes_in", len(raw),
		"bytes_out", len(xml))
	return &Result{
		XML:        xml,
		Score:      s,
		SourceHash: Fingerprint(raw),
	}, nil
}

// Fingerprint returns the hex-encoded BLAKE3 hash of raw input bytes.
// Hosts use it to detect source changes without re-parsing.
func Fingerprint(raw []byte) string {
	h := blake3.Sum256(raw)
	return hex.EncodeToString(h[:])
}
