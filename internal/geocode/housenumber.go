// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

var houseNumberRe = regexp.MustCompile(`[0-9]{1,6}`)

// ExtractHouseNumber returns the first run of one to six digits in text, or an empty string.
// The digits are returned verbatim, so "0456" and "456" are different house numbers.
func ExtractHouseNumber(text string) string {
	return houseNumberRe.FindString(text)
}

// SameName reports whether two administrative names are equal ignoring case.
func SameName(a, b string) bool {
	fold := cases.Fold()
	return fold.String(strings.TrimSpace(a)) == fold.String(strings.TrimSpace(b))
}

// NamesConflict reports whether both names are present and differ ignoring case.
func NamesConflict(a, b string) bool {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return false
	}
	return !SameName(a, b)
}
