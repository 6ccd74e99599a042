package csv

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const utf8BOM = "\uFEFF"

// normalizeHeader cleans the raw header row:
//   - a UTF-8 BOM is stripped from the first cell and edge spaces are trimmed
//   - names are NFC-normalized so header_map keys match however the file
//     encoded accents
//   - header_map renames apply, then optional lowercase/underscore folding
//   - empty names become "Unnamed: <i>" and repeats get ".1", ".2" suffixes
func normalizeHeader(raw []string, opt Options) []string {
	out := make([]string, len(raw))
	for i, h := range raw {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		h = norm.NFC.String(strings.TrimSpace(h))
		if mapped, ok := opt.HeaderMap[h]; ok {
			h = mapped
		} else if opt.FoldHeaders {
			h = strings.ReplaceAll(strings.ToLower(h), " ", "_")
		}
		if h == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}
		out[i] = h
	}
	return dedupeNames(out)
}

// dedupeNames renames repeated names to name.1, name.2, ... in order,
// skipping suffixes that are already taken.
func dedupeNames(names []string) []string {
	taken := make(map[string]bool, len(names))
	for _, n := range names {
		taken[n] = false
	}
	for i, n := range names {
		if !taken[n] {
			taken[n] = true
			continue
		}
		for k := 1; ; k++ {
			c := n + "." + strconv.Itoa(k)
			if _, used := taken[c]; !used {
				names[i] = c
				taken[c] = true
				break
			}
		}
	}
	return names
}
