package models

import (
	"encoding/json"
	"sort"
)

// Breakdown is a categorical count aggregation over one field. It
// remembers first-seen key order so sorting by count has a stable,
// deterministic tie-break.
type Breakdown struct {
	counts map[string]int
	order  []string
}

// CategoryCount is one (value, count) pair of a sorted breakdown.
type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// NewBreakdown creates an empty breakdown.
func NewBreakdown() *Breakdown {
	return &Breakdown{counts: make(map[string]int)}
}

// Add increments the count for a category value.
func (b *Breakdown) Add(value string) {
	if _, ok := b.counts[value]; !ok {
		b.order = append(b.order, value)
	}
	b.counts[value]++
}

// Count returns the count for a category value, zero if absent.
func (b *Breakdown) Count(value string) int {
	return b.counts[value]
}

// Len returns the number of distinct category values.
func (b *Breakdown) Len() int {
	return len(b.counts)
}

// Counts returns a copy of the underlying map.
func (b *Breakdown) Counts() map[string]int {
	out := make(map[string]int, len(b.counts))
	for k, v := range b.counts {
		out[k] = v
	}
	return out
}

// Sorted returns the categories ordered by count descending, ties
// broken by first-seen order.
func (b *Breakdown) Sorted() []CategoryCount {
	out := make([]CategoryCount, 0, len(b.order))
	for _, value := range b.order {
		out = append(out, CategoryCount{Value: value, Count: b.counts[value]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// SortedByValueDesc returns the categories ordered by value string
// descending. Used for month buckets where newest-first reads best.
func (b *Breakdown) SortedByValueDesc() []CategoryCount {
	values := append([]string(nil), b.order...)
	sort.Sort(sort.Reverse(sort.StringSlice(values)))
	out := make([]CategoryCount, 0, len(values))
	for _, value := range values {
		out = append(out, CategoryCount{Value: value, Count: b.counts[value]})
	}
	return out
}

// MarshalJSON renders the breakdown as a plain value-to-count object.
func (b *Breakdown) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.counts)
}
