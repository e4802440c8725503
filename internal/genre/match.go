package genre

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// Characters ignored when comparing genre names.
	strictStrip = regexp.MustCompile(`[ \-/+']`)
	// Same as strictStrip but keeps slashes, used when splitting on '/'.
	looseStrip = regexp.MustCompile(`[ \-+']`)
	// One "(n)" or "(n,m)" group of the legacy ID3v1 style encoding.
	indexGroup = regexp.MustCompile(`\(([^()]*)\)`)
)

// byKey maps a normalized name to its genre.
var byKey = func() map[string]Genre {
	m := make(map[string]Genre, Count)
	for g := Genre(0); g < Count; g++ {
		m[normalize(names[g], strictStrip)] = g
	}
	return m
}()

// localized holds genre spellings that never normalize to a table entry.
var localized = map[string]Genre{
	"русскийрок": RusRock,
	"шансон":     Chanson,
}

func normalize(s string, strip *regexp.Regexp) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strip.ReplaceAllString(s, "")
	return strings.ReplaceAll(s, "&", "n")
}

// FromString decodes a free-text genre tag into genre codes, in the order they
// appear. It returns nil when nothing is recognized; that is not an error.
func FromString(text string) []Genre {
	text = strings.TrimRight(text, "\x00")
	if normalize(text, strictStrip) == "" {
		return nil
	}

	if strings.HasPrefix(strings.TrimSpace(text), "(") {
		return fromIndexList(text)
	}

	genres := split(text, ",", strictStrip)
	if len(genres) == 0 {
		genres = split(text, "/", looseStrip)
	}
	if len(genres) == 0 {
		if g, ok := localized[normalize(text, strictStrip)]; ok {
			genres = append(genres, g)
		}
	}
	return genres
}

func split(text, sep string, strip *regexp.Regexp) []Genre {
	var genres []Genre
	for _, token := range strings.Split(text, sep) {
		key := normalize(token, strip)
		if key == "" {
			continue
		}
		if g, ok := byKey[key]; ok {
			genres = append(genres, g)
		} else if g, ok := localized[key]; ok {
			genres = append(genres, g)
		}
	}
	return genres
}

func fromIndexList(text string) []Genre {
	var genres []Genre
	for _, m := range indexGroup.FindAllStringSubmatch(text, -1) {
		for _, field := range strings.Split(m[1], ",") {
			n, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil {
				continue
			}
			if n >= 0 && n < int(Count) {
				genres = append(genres, Genre(n))
			}
		}
	}
	return genres
}
