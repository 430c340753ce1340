package naming

import (
	"path/filepath"
	"strconv"
	"strings"
)

const (
	totalToken = "##"
	indexToken = "#"
)

// DefaultMaxTotal bounds the Recognize search. Splitting a file into more
// parts than this is outside anything the planner will ever produce.
const DefaultMaxTotal = 999

// Scheme generates and recognizes part filenames for one pattern.
type Scheme struct {
	Pattern  string
	MaxTotal int // Upper bound for the Recognize total search.
}

// New returns a Scheme for pattern with the default recognition bound.
func New(pattern string) Scheme {
	return Scheme{Pattern: pattern, MaxTotal: DefaultMaxTotal}
}

// Warning returns a non-empty diagnostic when the pattern cannot produce
// unique names. The pattern is still accepted; the caller must surface the
// warning rather than drop it.
func (s Scheme) Warning() string {
	if !s.hasIndexToken() {
		return "pattern contains no '#' placeholder: all part names collide"
	}
	return ""
}

// hasIndexToken reports whether the pattern holds an index placeholder that
// survives total substitution. A bare Contains check is wrong here: '##' is
// a superset string of '#', so a pattern like "_of_##" would pass it while
// rendering every index to the same name.
func (s Scheme) hasIndexToken() bool {
	return strings.Contains(strings.ReplaceAll(s.Pattern, totalToken, ""), indexToken)
}

// Suffix renders the pattern for one (index, total) pair. The index is
// zero-padded to the width of the total once the total has two or more
// digits; below that both are unpadded.
func (s Scheme) Suffix(index, total int) string {
	totalStr := strconv.Itoa(total)
	indexStr := strconv.Itoa(index)
	if total >= 10 {
		indexStr = zeroPad(indexStr, len(totalStr))
	}
	// '##' before '#': the double token must not be half-consumed by the
	// single-token substitution.
	out := strings.ReplaceAll(s.Pattern, totalToken, totalStr)
	return strings.ReplaceAll(out, indexToken, indexStr)
}

// PartName builds the full filename for one part. ext carries its leading
// dot (as returned by filepath.Ext); the suffix is applied before it.
func (s Scheme) PartName(base, ext string, index, total int) string {
	return base + s.Suffix(index, total) + ext
}

// Match is a recognized part filename: the base name it was derived from
// and the (index, total) pair encoded in it.
type Match struct {
	Base  string
	Index int
	Total int
}

// Recognize reports whether filename looks like a part this scheme
// generated, and if so recovers the base name, total, and index. The search
// tries totals 1..MaxTotal in order and accepts the first match, so callers
// get deterministic answers for a fixed pattern.
func (s Scheme) Recognize(filename string) (Match, bool) {
	if !s.hasIndexToken() {
		// Degenerate pattern: every index renders identically, so the
		// index can never be recovered from a name.
		return Match{}, false
	}

	base := filepath.Base(filename)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	limit := s.MaxTotal
	if limit <= 0 {
		limit = DefaultMaxTotal
	}
	for total := 1; total <= limit; total++ {
		// Cheap pre-check on the literal text after the last placeholder
		// rules out almost every total without generating suffixes.
		if !strings.HasSuffix(stem, s.literalTail(total)) {
			continue
		}
		for index := 1; index <= total; index++ {
			suffix := s.Suffix(index, total)
			if suffix != "" && strings.HasSuffix(stem, suffix) {
				return Match{
					Base:  strings.TrimSuffix(stem, suffix),
					Index: index,
					Total: total,
				}, true
			}
		}
	}
	return Match{}, false
}

// literalTail returns the pattern text after the final placeholder, with
// the total substituted. It is identical for every index of a given total.
func (s Scheme) literalTail(total int) string {
	tpl := strings.ReplaceAll(s.Pattern, totalToken, strconv.Itoa(total))
	if i := strings.LastIndex(tpl, indexToken); i >= 0 {
		return tpl[i+len(indexToken):]
	}
	return tpl
}

func zeroPad(s string, width int) string {
	for len(s) < width {
		s = "0" + s
	}
	return s
}
