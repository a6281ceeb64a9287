package extractor

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/manifest-network/metaharvest/internal/models"
)

// ExtractMetadata flattens a metadata value into one record. Every string leaf
// becomes a line, in depth-first document order. Numbers, booleans and nulls
// are dropped.
func ExtractMetadata(label string, raw json.RawMessage) models.MetadataRecord {
	var lines []string
	if len(bytes.TrimSpace(raw)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := walkValue(dec, &lines); err != nil {
			slog.Warn("Malformed metadata JSON", "label", label, "error", err)
		}
	}
	return models.MetadataRecord{Label: label, Text: strings.Join(lines, "\n")}
}

// walkValue consumes exactly one JSON value from dec. The token stream keeps
// object members in document order, which a decoded map would lose.
func walkValue(dec *json.Decoder, lines *[]string) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	switch v := tok.(type) {
	case string:
		*lines = append(*lines, v)
	case json.Delim:
		switch v {
		case '[':
			for dec.More() {
				if err := walkValue(dec, lines); err != nil {
					return err
				}
			}
		case '{':
			for dec.More() {
				// key
				if _, err := dec.Token(); err != nil {
					return err
				}
				if err := walkValue(dec, lines); err != nil {
					return err
				}
			}
		}
		// closing delimiter
		if _, err := dec.Token(); err != nil {
			return err
		}
	}
	return nil
}
