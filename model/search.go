package model

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	DefaultPage  = 1
	DefaultLimit = 25
)

// UserPage bundles one page of search results.
type UserPage struct {
	Users []User
	Total int64
	Page  int
	Limit int
}

// stripMarks decomposes and removes combining diacritical marks, so that
// "José" and "jose" compare equal after lowercasing.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeSearchText lowercases and strips diacritics.
func normalizeSearchText(s string) string {
	s = strings.ToLower(s)
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		return s
	}
	return out
}

// tokenize splits a free-text query on whitespace into normalized tokens.
// An empty query yields no tokens.
func tokenize(q string) []string {
	fields := strings.Fields(strings.TrimSpace(q))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if t := normalizeSearchText(f); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// matchesTokens reports whether any token is a substring of the user's
// normalized name or email.
func matchesTokens(u *User, tokens []string) bool {
	name := normalizeSearchText(u.Name)
	email := normalizeSearchText(u.Email)
	for _, tok := range tokens {
		if strings.Contains(name, tok) || strings.Contains(email, tok) {
			return true
		}
	}
	return false
}

// SearchUsers filters and paginates the given collection. It is a pure
// read: the input order is preserved, non-positive page/limit fall back to
// the defaults, and a page past the end yields an empty slice, not an
// error. Total is the filtered count before pagination.
func SearchUsers(all []User, q string, page, limit int) UserPage {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}

	filtered := all
	if tokens := tokenize(q); len(tokens) > 0 {
		filtered = make([]User, 0, len(all))
		for i := range all {
			if matchesTokens(&all[i], tokens) {
				filtered = append(filtered, all[i])
			}
		}
	}

	total := int64(len(filtered))
	start := (page - 1) * limit
	end := start + limit
	if start > len(filtered) {
		start = len(filtered)
	}
	if end > len(filtered) {
		end = len(filtered)
	}

	return UserPage{
		Users: filtered[start:end],
		Total: total,
		Page:  page,
		Limit: limit,
	}
}

// ListUsers returns a page of users matching the free-text query `q`.
// Matching is case- and diacritic-insensitive over name and email, which
// LIKE cannot express portably across SQLite and Postgres, so the
// collection is loaded in insertion order and filtered here.
func (s *Store) ListUsers(q string, page, limit int) (UserPage, error) {
	var all []User
	if err := s.db.Order("id ASC").Find(&all).Error; err != nil {
		return UserPage{}, err
	}
	return SearchUsers(all, q, page, limit), nil
}
