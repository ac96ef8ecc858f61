// Package selection narrows a search result list down to at most a fixed
// number of stories per allow-listed publisher.
//
// Publisher names are compared exactly and case-sensitively: "BBC" and
// "BBC.com" are different publishers. Changing the allow-list spelling
// changes the result.
package selection

import (
	"errors"
	"iter"
	"slices"

	"github.com/pevans/newspick/news"
)

// ErrInvalidCap is returned for a per-publisher cap below one.
var ErrInvalidCap = errors.New("cap must be at least 1")

// AllowList is the ordered set of publisher names eligible for selection.
type AllowList []string

// Normalize returns the list with duplicates removed, keeping the first
// occurrence. Names are not otherwise altered.
func (a AllowList) Normalize() AllowList {
	seen := make(map[string]struct{}, len(a))
	out := make(AllowList, 0, len(a))
	for _, name := range a {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// Contains reports whether name is on the list, by exact match.
func (a AllowList) Contains(name string) bool {
	return slices.Contains(a, name)
}

// Pick holds the stories selected for one publisher. A pick with no stories
// means no story was found.
type Pick struct {
	Publisher string
	Stories   []news.Article
}

// Found reports whether at least one story was selected.
func (p Pick) Found() bool {
	return len(p.Stories) > 0
}

// Result maps every allow-listed publisher to its pick, in allow-list order.
type Result struct {
	limit   int
	picks   []Pick
	index   map[string]int
	filled  int
	scanned int
}

func newResult(allow AllowList, limit int) *Result {
	r := &Result{
		limit: limit,
		picks: make([]Pick, len(allow)),
		index: make(map[string]int, len(allow)),
	}
	for i, name := range allow {
		r.picks[i] = Pick{Publisher: name}
		r.index[name] = i
	}
	return r
}

// NotFound returns a result in which every publisher on the list has no
// story, for a cap of limit (at least 1). Used when a search fails or comes
// back empty.
func NotFound(allow AllowList, limit int) *Result {
	return newResult(allow.Normalize(), max(limit, 1))
}

// Picks returns a copy of the picks in allow-list order.
func (r *Result) Picks() []Pick {
	picks := make([]Pick, len(r.picks))
	for i, p := range r.picks {
		picks[i] = Pick{Publisher: p.Publisher, Stories: slices.Clone(p.Stories)}
	}
	return picks
}

// Stories returns a copy of the stories selected for publisher, or nil.
func (r *Result) Stories(publisher string) []news.Article {
	i, ok := r.index[publisher]
	if !ok {
		return nil
	}
	return slices.Clone(r.picks[i].Stories)
}

// Found reports whether a story was selected for publisher.
func (r *Result) Found(publisher string) bool {
	return len(r.Stories(publisher)) > 0
}

// Complete reports whether every publisher has reached the cap.
func (r *Result) Complete() bool {
	return r.filled == len(r.picks)
}

// Scanned returns how many articles were inspected before the scan ended.
func (r *Result) Scanned() int {
	return r.scanned
}

// Count returns the total number of selected stories.
func (r *Result) Count() int {
	n := 0
	for _, p := range r.picks {
		n += len(p.Stories)
	}
	return n
}

// offer tries to accept a for its publisher and reports whether it was taken.
func (r *Result) offer(a news.Article) bool {
	i, ok := r.index[a.Publisher]
	if !ok {
		return false
	}

	pick := &r.picks[i]
	if len(pick.Stories) >= r.limit {
		return false
	}
	for _, s := range pick.Stories {
		if s.Link == a.Link {
			return false
		}
	}

	pick.Stories = append(pick.Stories, a)
	if len(pick.Stories) == r.limit {
		r.filled++
	}
	return true
}

// Selector selects stories for a fixed allow-list and cap.
type Selector struct {
	allow AllowList
	limit int
}

// NewSelector creates a selector keeping at most limit stories for each name in
// allow.
func NewSelector(allow AllowList, limit int) (*Selector, error) {
	if limit < 1 {
		return nil, ErrInvalidCap
	}
	return &Selector{
		allow: allow.Normalize(),
		limit: limit,
	}, nil
}

// AllowList returns the selector's publisher list.
func (s *Selector) AllowList() AllowList {
	return slices.Clone(s.allow)
}

// NotFound returns an all-"not found" result for the selector's list and cap.
func (s *Selector) NotFound() *Result {
	return NotFound(s.allow, s.limit)
}

// Cap returns the per-publisher cap.
func (s *Selector) Cap() int {
	return s.limit
}

// Select runs the selection over articles in their given order.
func (s *Selector) Select(articles []news.Article) *Result {
	return s.SelectSeq(slices.Values(articles))
}

// SelectSeq runs the selection over a sequence in a single pass. The first
// story seen for a publisher wins, and no more articles are pulled once every
// publisher has reached the cap.
func (s *Selector) SelectSeq(articles iter.Seq[news.Article]) *Result {
	result := newResult(s.allow, s.limit)
	if result.Complete() {
		return result
	}

	for a := range articles {
		result.scanned++
		result.offer(a)
		if result.Complete() {
			break
		}
	}

	return result
}
