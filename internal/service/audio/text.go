package audio

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/iamvkosarev/songmeta/internal/genre"
	"github.com/iamvkosarev/songmeta/internal/model"
)

// ID3v2 text encodings.
const (
	encodingLatin1  = 0
	encodingUTF16   = 1
	encodingUTF16BE = 2
	encodingUTF8    = 3
)

// decodeID3Text decodes a text frame payload: one encoding byte followed by
// the text. A payload that starts with a byte order mark instead of an
// encoding byte is read as UTF-16.
func decodeID3Text(payload []byte) (string, error) {
	if len(payload) == 0 {
		return "", nil
	}

	var (
		dec  *encoding.Decoder
		data = payload[1:]
	)
	switch payload[0] {
	case encodingLatin1:
		dec = charmap.ISO8859_1.NewDecoder()
	case encodingUTF16:
		dec = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	case encodingUTF16BE:
		dec = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	case encodingUTF8:
		return trimText(strings.ToValidUTF8(string(data), string(utf8.RuneError))), nil
	case 0xFF, 0xFE:
		dec = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		data = payload
	default:
		dec = charmap.ISO8859_1.NewDecoder()
	}

	out, err := dec.Bytes(data)
	if err != nil {
		return "", err
	}
	return trimText(string(out)), nil
}

func trimText(s string) string {
	return strings.TrimRight(s, "\x00")
}

// parseYear reads the leading four digit year of a date such as "2004" or
// "2004-05-01".
func parseYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if len(s) > 4 {
		s = s[:4]
	}
	year, err := strconv.Atoi(s)
	if err != nil || year <= 0 {
		return 0, false
	}
	return year, true
}

// addGenres matches a raw genre string and records a warning when nothing
// in it is recognized.
func addGenres(meta *model.Meta, path, raw string) {
	raw = trimText(raw)
	genres := genre.FromString(raw)
	if len(genres) == 0 {
		meta.AddWarning("%s: unrecognized genre %q", path, raw)
		return
	}
	meta.Genres = append(meta.Genres, genres...)
}

// applyComment interprets one "KEY=value" comment from an Opus or FLAC
// comment vector. Malformed entries and values shorter than two characters
// are skipped.
func applyComment(meta *model.Meta, path, comment string) {
	eq := strings.IndexByte(comment, '=')
	if eq < 1 || utf8.RuneCountInString(comment[:eq]) >= utf8.RuneCountInString(comment)-2 {
		return
	}
	key := strings.ToLower(comment[:eq])
	value := comment[eq+1:]

	switch key {
	case "genre":
		addGenres(meta, path, value)
	case "artist":
		meta.Artist = value
	case "album":
		meta.Album = value
	case "title":
		meta.Title = value
	case "date":
		year, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			meta.AddWarning("%s: date %q is not a year", path, value)
			return
		}
		meta.Year = year
	}
}
