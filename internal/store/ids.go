package store

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/centy-dev/centy-core/internal/fs"
)

// newUUID returns a fresh UUIDv4 string, the canonical id form spec.md §4.6
// requires for `identifier: uuid` types.
func newUUID() string {
	return uuid.New().String()
}

// slugify lowercases title, ASCII-folds it, replaces runs of non-alphanumeric
// characters with a single hyphen, and trims leading/trailing hyphens, per
// spec.md §4.6's slug derivation rule.
func slugify(title string) string {
	var b strings.Builder

	lastHyphen := true // suppress a leading hyphen

	for _, r := range title {
		r = foldASCII(r)

		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case r >= 'A' && r <= 'Z':
			b.WriteRune(unicode.ToLower(r))
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.Trim(b.String(), "-")
}

// foldASCII maps a handful of common accented Latin letters to their
// unaccented ASCII form; titles outside this set fall through to the
// non-alphanumeric branch in slugify and become a separator, same as spec.md's
// "replacing non-alphanumerics with -" rule.
func foldASCII(r rune) rune {
	switch r {
	case 'á', 'à', 'â', 'ä', 'ã', 'å':
		return 'a'
	case 'é', 'è', 'ê', 'ë':
		return 'e'
	case 'í', 'ì', 'î', 'ï':
		return 'i'
	case 'ó', 'ò', 'ô', 'ö', 'õ':
		return 'o'
	case 'ú', 'ù', 'û', 'ü':
		return 'u'
	case 'ñ':
		return 'n'
	case 'ç':
		return 'c'
	default:
		return r
	}
}

// uniqueSlug derives a slug from title and, if a record with that id already
// exists under typeDir, suffixes -2, -3, … until a free id is found, per
// spec.md §4.6 and §8's "Slug collision" scenario.
func uniqueSlug(fsys fs.FS, typeDir, title string) (string, error) {
	base := slugify(title)
	if base == "" {
		base = "untitled"
	}

	candidate := base

	for n := 2; ; n++ {
		exists, err := recordExists(fsys, typeDir, candidate)
		if err != nil {
			return "", err
		}

		if !exists {
			return candidate, nil
		}

		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

func recordExists(fsys fs.FS, typeDir, id string) (bool, error) {
	return fsys.Exists(recordPath(typeDir, id))
}
