package ethpool

import (
	"encoding/json"
	"strings"
)

// errorMarker prefixes machine-readable codes in a response's error list.
const errorMarker = "E"

// Normalize inspects a parsed response for a non-empty "error" list. Marked
// entries become an *APIError with the marker stripped; a list with no marked
// entries yields ErrUnknownAPI. Otherwise body is returned unchanged.
//
// A string-valued "error" is treated as a one-entry list. Other shapes carry
// no error information.
func Normalize(body json.RawMessage) (json.RawMessage, error) {
	entries := errorEntries(body)
	if len(entries) == 0 {
		return body, nil
	}

	var codes []string
	for _, e := range entries {
		if strings.HasPrefix(e, errorMarker) {
			codes = append(codes, strings.TrimPrefix(e, errorMarker))
		}
	}
	if len(codes) == 0 {
		return nil, newError("ethpool.Normalize", ErrUnknownAPI, strings.Join(entries, ", "))
	}
	return nil, &APIError{Codes: codes}
}

// errorEntries extracts the entries of the "error" field. Non-string list
// entries are kept in rendered form so they still count as unmarked errors.
func errorEntries(body json.RawMessage) []string {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Error) == 0 {
		return nil
	}

	var single string
	if err := json.Unmarshal(envelope.Error, &single); err == nil {
		if single == "" {
			return nil
		}
		return []string{single}
	}

	var list []json.RawMessage
	if err := json.Unmarshal(envelope.Error, &list); err != nil {
		return nil
	}
	entries := make([]string, 0, len(list))
	for _, raw := range list {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			entries = append(entries, s)
			continue
		}
		entries = append(entries, string(raw))
	}
	return entries
}
