package complete

import (
	"sort"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Match scores.
const (
	scorePrefix    = 0
	scoreSubstring = 1
	scoreScattered = 2
)

// Score rates how well query matches label, ignoring case. Lower is
// better. A prefix scores 0, a contiguous substring 1 and any other
// in-order subsequence 2 plus the number of label characters skipped
// between the first and last matched character. ok is false when query is
// not a subsequence of label.
func Score(query, label string) (int, bool) {
	folder := cases.Fold()
	q := []rune(folder.String(query))
	l := []rune(folder.String(label))
	if len(q) == 0 {
		return scorePrefix, true
	}
	if hasPrefix(l, q) {
		return scorePrefix, true
	}
	if index(l, q) >= 0 {
		return scoreSubstring, true
	}

	first, last := -1, -1
	qi := 0
	for li := 0; li < len(l) && qi < len(q); li++ {
		if l[li] != q[qi] {
			continue
		}
		if first < 0 {
			first = li
		}
		last = li
		qi++
	}
	if qi < len(q) {
		return 0, false
	}
	gaps := (last - first + 1) - len(q)
	return scoreScattered + gaps, true
}

func hasPrefix(s, prefix []rune) bool {
	if len(prefix) > len(s) {
		return false
	}
	for i := range prefix {
		if s[i] != prefix[i] {
			return false
		}
	}
	return true
}

func index(s, sub []rune) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if hasPrefix(s[i:], sub) {
			return i
		}
	}
	return -1
}

// scored is a candidate with its match score and alphabetical position.
type scored struct {
	Candidate
	score int
	order int
}

// rank filters the alphabetically ordered candidates by query and sorts the
// matches: best score first, then shorter label, then the alphabetical
// order, then raw bytes.
func rank(query string, ordered []Candidate) []Candidate {
	matches := make([]scored, 0, len(ordered))
	for i, c := range ordered {
		s, ok := Score(query, c.Label)
		if !ok {
			continue
		}
		matches = append(matches, scored{Candidate: c, score: s, order: i})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.score != b.score {
			return a.score < b.score
		}
		la, lb := utf8.RuneCountInString(a.Label), utf8.RuneCountInString(b.Label)
		if la != lb {
			return la < lb
		}
		if a.order != b.order {
			return a.order < b.order
		}
		return a.Label < b.Label
	})

	out := make([]Candidate, len(matches))
	for i, m := range matches {
		out[i] = m.Candidate
		out[i].SortKey = sortKey(i)
	}
	return out
}
