package filter

import (
	"strings"

	"github.com/sahilm/fuzzy"
	"golang.org/x/text/cases"

	"github.com/mwantia/trainmap/pkg/training"
)

// SearchIndex answers free-text queries over the searchable training fields.
type SearchIndex struct {
	ids  []int
	docs []string
}

// NewSearchIndex indexes type, location, address, trainer, age group, weekday and note.
func NewSearchIndex(trainings []training.Training) *SearchIndex {
	fold := cases.Fold()
	idx := &SearchIndex{
		ids:  make([]int, 0, len(trainings)),
		docs: make([]string, 0, len(trainings)),
	}
	for _, t := range trainings {
		doc := strings.Join([]string{
			t.Type, t.Location, t.Address, t.Trainer, t.AgeGroup, string(t.Weekday), t.Note,
		}, " ")
		idx.ids = append(idx.ids, t.ID)
		idx.docs = append(idx.docs, fold.String(doc))
	}
	return idx
}

// String implements fuzzy.Source.
func (idx *SearchIndex) String(i int) string {
	return idx.docs[i]
}

// Len implements fuzzy.Source.
func (idx *SearchIndex) Len() int {
	return len(idx.docs)
}

// Search returns the IDs matching every whitespace-separated word of term.
// A blank term returns nil, meaning "no restriction".
func (idx *SearchIndex) Search(term string) map[int]bool {
	words := strings.Fields(cases.Fold().String(term))
	if len(words) == 0 {
		return nil
	}

	var result map[int]bool
	for _, word := range words {
		hits := map[int]bool{}
		for _, m := range fuzzy.FindFrom(word, idx) {
			if !tightMatch(word, idx.docs[m.Index], m.MatchedIndexes) {
				continue
			}
			id := idx.ids[m.Index]
			if result == nil || result[id] {
				hits[id] = true
			}
		}
		result = hits
		if len(result) == 0 {
			break
		}
	}
	return result
}

// tightMatch accepts substring hits, and fuzzy hits whose matched characters
// span at most a quarter more than the word itself.
func tightMatch(word, doc string, matched []int) bool {
	if strings.Contains(doc, word) {
		return true
	}
	if len(matched) == 0 {
		return false
	}
	span := matched[len(matched)-1] - matched[0] + 1
	return span <= len(word)+len(word)/4
}
