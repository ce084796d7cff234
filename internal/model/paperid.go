package model

import (
	"errors"
	"net/url"
	"strings"
)

// Paper identifier errors.
var (
	// ErrEmptyPaperID is returned when the identifier is empty.
	ErrEmptyPaperID = errors.New("paper identifier cannot be empty")
	// ErrInvalidPaperID is returned when the identifier matches no known format.
	ErrInvalidPaperID = errors.New("invalid paper identifier format")
)

// s2IDLength is the length of a native Semantic Scholar paper ID (SHA1 hex).
const s2IDLength = 40

// externalIDPrefixes maps accepted identifier prefixes (lower-cased) to
// their canonical form. The API accepts prefixes case-insensitively; we
// canonicalize to upper case so that identifiers compare equal before any
// store lookup.
var externalIDPrefixes = map[string]string{
	"doi":      "DOI",
	"arxiv":    "ARXIV",
	"pmid":     "PMID",
	"pmcid":    "PMCID",
	"acl":      "ACL",
	"corpusid": "CORPUSID",
	"mag":      "MAG",
	"url":      "URL",
}

// NormalizePaperID validates raw and returns its canonical form.
//
// Accepted inputs:
//   - Native S2 paper ID: 40 hexadecimal characters (normalized to lower case)
//   - Prefixed external IDs: DOI:10.x/y, ARXIV:1706.03762, PMID:123,
//     PMCID:123, ACL:W12-3456, CorpusId:123, MAG:123, URL:https://...
//   - Bare DOIs starting with "10." containing a slash
//   - semanticscholar.org paper URLs (the trailing S2 ID is extracted)
//
// Normalization happens before any store lookup so that the same paper
// reached through different spellings maps to a single row.
func NormalizePaperID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", ErrEmptyPaperID
	}

	// Native S2 ID
	if isS2Hex(id) {
		return strings.ToLower(id), nil
	}

	// semanticscholar.org paper URL or generic URL
	if strings.HasPrefix(id, "http://") || strings.HasPrefix(id, "https://") {
		return normalizePaperURL(id)
	}

	// Prefixed external ID
	if prefix, value, ok := strings.Cut(id, ":"); ok {
		canonical, known := externalIDPrefixes[strings.ToLower(prefix)]
		if !known {
			return "", ErrInvalidPaperID
		}
		value = strings.TrimSpace(value)
		if !validExternalIDValue(canonical, value) {
			return "", ErrInvalidPaperID
		}
		return canonical + ":" + value, nil
	}

	// Bare DOI
	if strings.HasPrefix(id, "10.") && strings.Contains(id, "/") {
		return "DOI:" + id, nil
	}

	return "", ErrInvalidPaperID
}

// normalizePaperURL extracts the S2 ID from a semanticscholar.org paper URL,
// or wraps any other URL in the URL: prefix understood by the API.
func normalizePaperURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", ErrInvalidPaperID
	}

	if strings.HasSuffix(strings.ToLower(u.Host), "semanticscholar.org") {
		// Paper URLs end with the hex ID: /paper/<slug>/<id>
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(segments) > 0 {
			last := segments[len(segments)-1]
			if isS2Hex(last) {
				return strings.ToLower(last), nil
			}
		}
		return "", ErrInvalidPaperID
	}

	return "URL:" + rawURL, nil
}

// validExternalIDValue checks the value part of a prefixed identifier.
func validExternalIDValue(prefix, value string) bool {
	if value == "" || strings.ContainsAny(value, " \t") {
		return false
	}

	switch prefix {
	case "PMID", "PMCID", "CORPUSID", "MAG":
		return isDigits(value)
	case "DOI":
		return strings.HasPrefix(value, "10.") && strings.Contains(value, "/")
	case "URL":
		return strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://")
	default:
		// ARXIV and ACL IDs have several historical formats; accept any
		// non-empty token and let the API reject unknown ones.
		return true
	}
}

// isS2Hex reports whether s is a 40-character hexadecimal string.
func isS2Hex(s string) bool {
	if len(s) != s2IDLength {
		return false
	}
	for _, c := range s {
		isLowerHex := c >= 'a' && c <= 'f'
		isUpperHex := c >= 'A' && c <= 'F'
		isDigit := c >= '0' && c <= '9'
		if !isLowerHex && !isUpperHex && !isDigit {
			return false
		}
	}
	return true
}

// isDigits reports whether s consists solely of ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
