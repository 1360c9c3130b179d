package groundplane

import "slices"

// Registry holds one TrackExtension per known track, sorted by track id.
type Registry struct {
	entries []TrackExtension

	// ForgetThreshold is the number of consecutive missed frames an entry
	// survives; it is evicted once MissedCount exceeds this value.
	ForgetThreshold int
}

// MergeResult lists the track ids touched by one Merge call, each in
// ascending order.
type MergeResult struct {
	Matched []TrackID // already known and active this frame
	Created []TrackID // active for the first time
	Missed  []TrackID // known, absent this frame, still retained
	Evicted []TrackID // known, absent, and removed
}

// NewRegistry returns an empty registry.
func NewRegistry(forgetThreshold int) *Registry {
	return &Registry{ForgetThreshold: forgetThreshold}
}

// Len returns the number of entries.
func (r *Registry) Len() int { return len(r.entries) }

// Entries returns a copy of the entries in track id order.
func (r *Registry) Entries() []TrackExtension {
	return slices.Clone(r.entries)
}

// Lookup returns the entry for id.
func (r *Registry) Lookup(id TrackID) (TrackExtension, bool) {
	if i, ok := r.index(id); ok {
		return r.entries[i], true
	}
	return TrackExtension{}, false
}

// HasValidReference reports whether any entry has a ground-plane reference.
func (r *Registry) HasValidReference() bool {
	for i := range r.entries {
		if r.entries[i].RefLocValid {
			return true
		}
	}
	return false
}

// Clone returns an independent copy of the registry.
func (r *Registry) Clone() *Registry {
	return &Registry{
		entries:         slices.Clone(r.entries),
		ForgetThreshold: r.ForgetThreshold,
	}
}

// Reset removes every entry.
func (r *Registry) Reset() {
	r.entries = nil
}

// Merge ages the registry against the ids active in the current frame.
// Active entries have their miss count reset, unknown ids get a fresh entry
// with no reference, and every other entry has its miss count incremented
// and is evicted once the count exceeds ForgetThreshold.
//
// active need not be sorted or unique. The registry stays sorted by id.
func (r *Registry) Merge(active []TrackID) MergeResult {
	ids := sortedUnique(active)

	var res MergeResult
	merged := make([]TrackExtension, 0, len(r.entries)+len(ids))
	i, j := 0, 0
	for i < len(r.entries) || j < len(ids) {
		switch {
		case j == len(ids) || (i < len(r.entries) && r.entries[i].ID < ids[j]):
			e := r.entries[i]
			i++
			e.MissedCount++
			if e.MissedCount > r.ForgetThreshold {
				res.Evicted = append(res.Evicted, e.ID)
				continue
			}
			res.Missed = append(res.Missed, e.ID)
			merged = append(merged, e)

		case i == len(r.entries) || ids[j] < r.entries[i].ID:
			merged = append(merged, TrackExtension{ID: ids[j]})
			res.Created = append(res.Created, ids[j])
			j++

		default:
			e := r.entries[i]
			e.MissedCount = 0
			merged = append(merged, e)
			res.Matched = append(res.Matched, e.ID)
			i++
			j++
		}
	}
	r.entries = merged
	return res
}

// entry returns a pointer to the entry for id, valid until the next Merge.
func (r *Registry) entry(id TrackID) *TrackExtension {
	if i, ok := r.index(id); ok {
		return &r.entries[i]
	}
	return nil
}

func (r *Registry) index(id TrackID) (int, bool) {
	return slices.BinarySearchFunc(r.entries, id, func(e TrackExtension, id TrackID) int {
		switch {
		case e.ID < id:
			return -1
		case e.ID > id:
			return 1
		}
		return 0
	})
}

func sortedUnique(ids []TrackID) []TrackID {
	out := slices.Clone(ids)
	if !slices.IsSorted(out) {
		slices.Sort(out)
	}
	return slices.Compact(out)
}
