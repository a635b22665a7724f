package kitchen

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Raikerian/go-lumina-kitchen/internal/config"
	"github.com/Raikerian/go-lumina-kitchen/internal/metrics"
)

// Operation labels used for request metrics.
const (
	opRecipe = "recipe"
	opSearch = "search"
	opFridge = "fridge"
	opImage  = "image"
)

// Service is the recipe side of the application.
type Service struct {
	logger        *zap.Logger
	gen           Generator
	metrics       *metrics.Kitchen
	book          *RecipeBook
	searches      *SearchCache
	fallbackImage string
	newID         func() string
}

// ServiceParams holds dependencies for NewService.
type ServiceParams struct {
	fx.In
	Logger    *zap.Logger
	Cfg       *config.Config
	Generator Generator
	Metrics   *metrics.Kitchen
}

// NewService creates the kitchen service with an empty recipe book.
func NewService(p ServiceParams) (*Service, error) {
	book, err := NewRecipeBook(p.Cfg.Recipes.BookSize)
	if err != nil {
		return nil, fmt.Errorf("recipe book: %w", err)
	}
	searches, err := NewSearchCache(p.Cfg.Recipes.SearchCacheSize)
	if err != nil {
		return nil, fmt.Errorf("search cache: %w", err)
	}

	return &Service{
		logger:        p.Logger.Named("kitchen"),
		gen:           p.Generator,
		metrics:       p.Metrics,
		book:          book,
		searches:      searches,
		fallbackImage: p.Cfg.Recipes.FallbackImageURL,
		newID:         uuid.NewString,
	}, nil
}

// CreateFromIngredients generates a recipe with a photo and adds it to the
// book. A failed photo falls back to the placeholder image.
func (s *Service) CreateFromIngredients(ctx context.Context, ingredients []string) (*Recipe, error) {
	items := cleanIngredients(ingredients)
	if len(items) == 0 {
		return nil, ErrNoIngredients
	}

	s.logger.Info("Generating recipe", zap.Strings("ingredients", items))

	started := time.Now()
	recipe, err := s.gen.GenerateRecipe(ctx, items)
	s.metrics.ObserveRequest(opRecipe, started, err)
	if err != nil {
		return nil, err
	}

	recipe.ID = s.newID()
	recipe.Image = s.FoodImage(ctx, recipe.Title)
	s.book.Add(recipe)

	s.logger.Info("Recipe added to book", zap.String("id", recipe.ID), zap.String("title", recipe.Title))

	return recipe, nil
}

// CreateFromFridgePhoto reads the ingredients off a photo and generates a
// recipe from them.
func (s *Service) CreateFromFridgePhoto(ctx context.Context, image []byte, mimeType string) (*Recipe, []string, error) {
	ingredients, err := s.AnalyzeFridge(ctx, image, mimeType)
	if err != nil {
		return nil, nil, err
	}

	recipe, err := s.CreateFromIngredients(ctx, ingredients)
	if err != nil {
		return nil, ingredients, err
	}

	return recipe, ingredients, nil
}

// AnalyzeFridge lists the ingredients visible in a photo.
func (s *Service) AnalyzeFridge(ctx context.Context, image []byte, mimeType string) ([]string, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("analyze fridge: image is empty")
	}

	started := time.Now()
	ingredients, err := s.gen.AnalyzeFridge(ctx, image, mimeType)
	s.metrics.ObserveRequest(opFridge, started, err)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Fridge analysed", zap.Strings("ingredients", ingredients))

	return ingredients, nil
}

// Search answers a culinary question with web sources. Answers are cached by
// normalised query.
func (s *Service) Search(ctx context.Context, query string) (*SearchResult, error) {
	key := normalizeQuery(query)
	if key == "" {
		return nil, ErrEmptyQuery
	}

	if cached, ok := s.searches.Get(key); ok {
		s.metrics.SearchCacheHits.Inc()
		s.logger.Debug("Search answered from cache", zap.String("query", key))
		return cached, nil
	}

	started := time.Now()
	result, err := s.gen.SearchRecipes(ctx, strings.TrimSpace(query))
	s.metrics.ObserveRequest(opSearch, started, err)
	if err != nil {
		return nil, err
	}

	s.searches.Add(key, result)

	return result, nil
}

// FoodImage returns a photo for the dish or the fallback image URL.
func (s *Service) FoodImage(ctx context.Context, title string) string {
	started := time.Now()
	image, err := s.gen.GenerateFoodImage(ctx, title)
	s.metrics.ObserveRequest(opImage, started, err)
	if err != nil || image == "" {
		s.logger.Warn("Falling back to placeholder image", zap.String("title", title), zap.Error(err))
		s.metrics.ImageFallbacks.Inc()
		return s.fallbackImage
	}

	return image
}

// Recipes returns the book, newest first.
func (s *Service) Recipes() []*Recipe {
	return s.book.List()
}

// Recipe looks up a recipe in the book.
func (s *Service) Recipe(id string) (*Recipe, bool) {
	return s.book.Get(id)
}

// cleanIngredients trims names and drops blanks and case-insensitive
// duplicates, keeping the first spelling.
func cleanIngredients(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, item := range in {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}
