package insights

import "slices"

const maxExamples = 3

// Item is a counted line with up to three example video ids.
type Item struct {
	Category string   `json:"category"`
	Count    int      `json:"count"`
	Examples []string `json:"examples"`
}

// tally counts lines in first-seen order.
type tally struct {
	order []string
	items map[string]*Item
}

func newTally() *tally {
	return &tally{items: map[string]*Item{}}
}

func (t *tally) add(category, videoID string) {
	it, ok := t.items[category]
	if !ok {
		it = &Item{Category: category, Examples: []string{}}
		t.items[category] = it
		t.order = append(t.order, category)
	}
	it.Count++
	if len(it.Examples) < maxExamples {
		it.Examples = append(it.Examples, videoID)
	}
}

// sorted returns items by descending count, ties in first-seen order.
func (t *tally) sorted() []Item {
	out := make([]Item, 0, len(t.order))
	for _, c := range t.order {
		out = append(out, *t.items[c])
	}
	slices.SortStableFunc(out, func(a, b Item) int { return b.Count - a.Count })
	return out
}
