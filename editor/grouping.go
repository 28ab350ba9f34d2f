package editor

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

type (
	// GroupEntry is one track in the display order. A linked entry belongs to
	// the same group as the entry before it.
	GroupEntry struct {
		ID     int
		Linked bool
	}

	// Grouping is the display order of the tracks together with their link
	// chains. The first entry is never linked and every track appears
	// exactly once.
	Grouping []GroupEntry
)

var groupingRegexp = regexp.MustCompile(`^\d+([-_]\d+)*$`)

// DefaultGrouping returns n unlinked tracks in index order.
func DefaultGrouping(n int) Grouping {
	ret := make(Grouping, n)
	for i := range ret {
		ret[i].ID = i
	}
	return ret
}

// String encodes the grouping: the ids in display order, each one after the
// first prefixed with '-' if it continues the link chain of the previous
// one, '_' if it starts a new group.
func (g Grouping) String() string {
	var b strings.Builder
	for i, e := range g {
		if i > 0 {
			if e.Linked {
				b.WriteByte('-')
			} else {
				b.WriteByte('_')
			}
		}
		b.WriteString(strconv.Itoa(e.ID))
	}
	return b.String()
}

// ParseGrouping decodes a string produced by Grouping.String. Tracks of
// 0..n-1 that the string does not mention are appended as unlinked
// singletons, as are ids missing below the largest id mentioned. An empty
// string gives DefaultGrouping(n).
func ParseGrouping(s string, n int) (Grouping, error) {
	var ret Grouping
	if s != "" {
		if !groupingRegexp.MatchString(s) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidGrouping, s)
		}
		seen := map[int]bool{}
		start := 0
		for i := 0; i <= len(s); i++ {
			if i < len(s) && s[i] != '-' && s[i] != '_' {
				continue
			}
			id, err := strconv.Atoi(s[start:i])
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidGrouping, err)
			}
			if seen[id] {
				return nil, fmt.Errorf("%w: duplicate id %d", ErrInvalidGrouping, id)
			}
			seen[id] = true
			ret = append(ret, GroupEntry{ID: id, Linked: start > 0 && s[start-1] == '-'})
			start = i + 1
		}
	}
	total := n
	for _, e := range ret {
		total = max(total, e.ID+1)
	}
	for id := range total {
		if ret.Position(id) < 0 {
			ret = append(ret, GroupEntry{ID: id})
		}
	}
	return ret, nil
}

// Position returns the display position of track id, or -1.
func (g Grouping) Position(id int) int {
	return slices.IndexFunc(g, func(e GroupEntry) bool { return e.ID == id })
}

// Order returns the track ids in display order.
func (g Grouping) Order() []int {
	ret := make([]int, len(g))
	for i, e := range g {
		ret[i] = e.ID
	}
	return ret
}

// Groups returns the track ids of every group, in display order.
func (g Grouping) Groups() [][]int {
	var ret [][]int
	for _, e := range g {
		if e.Linked && len(ret) > 0 {
			ret[len(ret)-1] = append(ret[len(ret)-1], e.ID)
		} else {
			ret = append(ret, []int{e.ID})
		}
	}
	return ret
}

// GroupAt returns the range of positions [start, end) of the group
// containing position pos.
func (g Grouping) GroupAt(pos int) (start, end int) {
	if pos < 0 || pos >= len(g) {
		return pos, pos
	}
	start, end = pos, pos+1
	for start > 0 && g[start].Linked {
		start--
	}
	for end < len(g) && g[end].Linked {
		end++
	}
	return start, end
}

// Move returns a copy of g with the group containing position from moved to
// position to, counted in g before the move. The target is snapped forward
// to a group boundary, so that no other group is split.
func (g Grouping) Move(from, to int) Grouping {
	start, end := g.GroupAt(from)
	if start == end {
		return slices.Clone(g)
	}
	group := slices.Clone(g[start:end])
	rest := make(Grouping, 0, len(g))
	rest = append(rest, g[:start]...)
	rest = append(rest, g[end:]...)
	switch {
	case to >= end:
		to -= end - start
	case to > start:
		to = start
	}
	to = max(0, min(len(rest), to))
	for to < len(rest) && rest[to].Linked {
		to++
	}
	ret := slices.Insert(rest, to, group...)
	ret[0].Linked = false
	return ret
}

// Valid reports whether g is a permutation of 0..n-1 with an unlinked first
// entry.
func (g Grouping) Valid(n int) bool {
	if len(g) != n || (n > 0 && g[0].Linked) {
		return false
	}
	seen := make([]bool, n)
	for _, e := range g {
		if e.ID < 0 || e.ID >= n || seen[e.ID] {
			return false
		}
		seen[e.ID] = true
	}
	return true
}
