package cache

import "strconv"

// sequence hands out stringified integers starting at "0".
type sequence struct {
	next int
}

// Next returns the next unused ID.
func (s *sequence) Next() string {
	id := strconv.Itoa(s.next)
	s.next++
	return id
}

// Last returns the most recently issued ID, or "-1" when none has been issued.
func (s *sequence) Last() string {
	return strconv.Itoa(s.next - 1)
}

// Reset starts the sequence over from "0".
func (s *sequence) Reset() {
	s.next = 0
}

// identities maps local and remote identities to cache IDs.
type identities struct {
	annotations sequence
	lists       sequence

	localAnnotations  map[string]string
	remoteAnnotations map[string]string
	localLists        map[int64]string
	remoteLists       map[string]string
}

func newIdentities() identities {
	return identities{
		localAnnotations:  make(map[string]string),
		remoteAnnotations: make(map[string]string),
		localLists:        make(map[int64]string),
		remoteLists:       make(map[string]string),
	}
}

func (ids *identities) resetAnnotations() {
	ids.annotations.Reset()
	clear(ids.localAnnotations)
	clear(ids.remoteAnnotations)
}

func (ids *identities) resetLists() {
	ids.lists.Reset()
	clear(ids.localLists)
	clear(ids.remoteLists)
}

// remap moves a remote ID mapping from prev to next for the entity with the given cache ID.
func remap(index map[string]string, prev, next, unifiedID string) {
	if prev == next {
		return
	}
	if prev != "" && index[prev] == unifiedID {
		delete(index, prev)
	}
	if next != "" {
		index[next] = unifiedID
	}
}

// compareIDs orders cache IDs numerically.
func compareIDs(a, b string) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
