package listing

import (
	"sort"
)

// Listing is a single classified item on the monitored site. Identity is the
// numeric ID taken from the detail page URL; Title and URL are informational
// and may drift between runs.
type Listing struct {
	ID    int64
	Title string
	URL   string
}

// Set maps listing IDs to listings.
type Set map[int64]Listing

// NewSet creates a set from the given listings. Later listings with the same
// ID replace earlier ones.
func NewSet(listings ...Listing) Set {
	s := make(Set, len(listings))
	for _, l := range listings {
		s.Add(l)
	}
	return s
}

// Add inserts or replaces a listing.
func (s Set) Add(l Listing) {
	s[l.ID] = l
}

// Has reports whether the set contains the ID.
func (s Set) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Difference returns the listings in s whose IDs are not in other. Only IDs
// are compared.
func (s Set) Difference(other Set) Set {
	out := make(Set)
	for id, l := range s {
		if !other.Has(id) {
			out[id] = l
		}
	}
	return out
}

// Merge returns a new set holding every listing in s plus those in other
// whose IDs s doesn't have yet. Existing entries in s are never overwritten.
func (s Set) Merge(other Set) Set {
	out := make(Set, len(s)+len(other))
	for id, l := range s {
		out[id] = l
	}
	for id, l := range other {
		if _, ok := out[id]; !ok {
			out[id] = l
		}
	}
	return out
}

// IDsDescending returns all IDs, highest first. Higher IDs are newer on the
// monitored site, so this is the order new listings get reported in.
func (s Set) IDsDescending() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	return ids
}

// IsSupersetOf reports whether every ID in other is also in s.
func (s Set) IsSupersetOf(other Set) bool {
	for id := range other {
		if !s.Has(id) {
			return false
		}
	}
	return true
}
