package kitchen

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// SearchCache holds recent search answers keyed by normalised query.
type SearchCache struct {
	*lru.Cache[string, *SearchResult]
}

// NewSearchCache creates a SearchCache holding at most size answers.
func NewSearchCache(size int) (*SearchCache, error) {
	c, err := lru.New[string, *SearchResult](size)
	if err != nil {
		return nil, err
	}

	return &SearchCache{Cache: c}, nil
}

// normalizeQuery lowercases the query and collapses whitespace so trivially
// different spellings share a cache entry.
func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

// RecipeBook keeps the most recent recipes. The oldest recipe is dropped once
// the book is full.
type RecipeBook struct {
	cache *lru.Cache[string, *Recipe]
}

// NewRecipeBook creates a book holding at most size recipes.
func NewRecipeBook(size int) (*RecipeBook, error) {
	c, err := lru.New[string, *Recipe](size)
	if err != nil {
		return nil, err
	}

	return &RecipeBook{cache: c}, nil
}

// Add stores a recipe as the newest entry.
func (b *RecipeBook) Add(r *Recipe) {
	b.cache.Add(r.ID, r)
}

// Get looks a recipe up by ID without changing its position.
func (b *RecipeBook) Get(id string) (*Recipe, bool) {
	return b.cache.Peek(id)
}

// List returns the recipes newest first.
func (b *RecipeBook) List() []*Recipe {
	values := b.cache.Values()
	out := make([]*Recipe, 0, len(values))
	for i := len(values) - 1; i >= 0; i-- {
		out = append(out, values[i])
	}
	return out
}

// Len returns the number of recipes in the book.
func (b *RecipeBook) Len() int {
	return b.cache.Len()
}
