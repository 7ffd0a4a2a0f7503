package textutil

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// minTermLen drops articles, take numbers and channel suffixes like "L"/"R".
const minTermLen = 3

// Terms is a bag of title words weighted by occurrence.
type Terms struct {
	counts map[string]float64
	length float64
}

// NewTerms builds the term bag for a title or file stem. It returns nil when
// nothing survives splitting.
func NewTerms(text string) *Terms {
	words := Words(text)
	if len(words) == 0 {
		return nil
	}
	t := &Terms{counts: make(map[string]float64, len(words))}
	for _, w := range words {
		t.counts[w]++
	}
	var sum float64
	for _, c := range t.counts {
		sum += c * c
	}
	t.length = math.Sqrt(sum)
	return t
}

// Words splits a sample-pack style name into lowercase words. Separators are
// any non letter or digit rune, and a lower-to-upper case change inside a word
// ("DoorSlam") also splits. Accents are stripped and all-digit words dropped.
func Words(text string) []string {
	stripMarks := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	plain, _, err := transform.String(stripMarks, text)
	if err != nil {
		plain = text
	}
	var (
		out  []string
		cur  []rune
		prev rune
	)
	flush := func() {
		if len(cur) >= minTermLen && !allDigits(cur) {
			out = append(out, strings.ToLower(string(cur)))
		}
		cur = cur[:0]
	}
	for _, r := range plain {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case unicode.IsUpper(r) && unicode.IsLower(prev):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
		prev = r
	}
	flush()
	return out
}

func allDigits(rs []rune) bool {
	for _, r := range rs {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Len reports how many distinct words t holds.
func (t *Terms) Len() int {
	if t == nil {
		return 0
	}
	return len(t.counts)
}

// Similarity is the cosine of the angle between t and other, in [0,1].
// A nil bag is similar to nothing.
func (t *Terms) Similarity(other *Terms) float64 {
	if t == nil || other == nil || t.length == 0 || other.length == 0 {
		return 0
	}
	small, large := t, other
	if len(small.counts) > len(large.counts) {
		small, large = large, small
	}
	var dot float64
	for w, c := range small.counts {
		dot += c * large.counts[w]
	}
	return dot / (t.length * other.length)
}

// BestMatch returns the index of the candidate most similar to target and its
// score. It returns -1 when no candidate shares a word with target.
func BestMatch(target *Terms, candidates []*Terms) (int, float64) {
	best, bestScore := -1, 0.0
	for i, c := range candidates {
		if score := target.Similarity(c); score > bestScore {
			best, bestScore = i, score
		}
	}
	return best, bestScore
}
