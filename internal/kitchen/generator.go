package kitchen

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/Raikerian/go-lumina-kitchen/internal/config"
)

const (
	recipePrompt = "Generate a high-quality, professional recipe using these ingredients: %s. " +
		"Feel free to assume basic pantry staples like salt, oil, and water are available."
	searchPrompt = "Find popular and authentic recipes or food news for: %s. Provide a helpful summary."
	fridgePrompt = "List all the food ingredients you can see in this fridge. " +
		"Return only a comma-separated list of ingredients."
	imagePrompt = "A professional, high-quality, appetizing food photograph of: %s. Studio lighting, 4k."

	imageAspectRatio = "16:9"
	defaultImageMIME = "image/png"
)

// Generator is the generative backend behind the kitchen service.
type Generator interface {
	GenerateRecipe(ctx context.Context, ingredients []string) (*Recipe, error)
	SearchRecipes(ctx context.Context, query string) (*SearchResult, error)
	AnalyzeFridge(ctx context.Context, image []byte, mimeType string) ([]string, error)
	// GenerateFoodImage returns the photo as a data URL.
	GenerateFoodImage(ctx context.Context, title string) (string, error)
}

// GenAIGenerator implements Generator on the Gemini REST API.
type GenAIGenerator struct {
	client     *genai.Client
	textModel  string
	imageModel string
	logger     *zap.Logger
}

var _ Generator = (*GenAIGenerator)(nil)

// NewGenAIGenerator creates a generator using the configured Gemini models.
func NewGenAIGenerator(client *genai.Client, cfg *config.Config, logger *zap.Logger) *GenAIGenerator {
	return &GenAIGenerator{
		client:     client,
		textModel:  cfg.Gemini.TextModel,
		imageModel: cfg.Gemini.ImageModel,
		logger:     logger.Named("gemini"),
	}
}

// GenerateRecipe asks for a schema-constrained JSON recipe.
func (g *GenAIGenerator) GenerateRecipe(ctx context.Context, ingredients []string) (*Recipe, error) {
	prompt := fmt.Sprintf(recipePrompt, strings.Join(ingredients, ", "))

	resp, err := g.client.Models.GenerateContent(ctx, g.textModel, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   RecipeSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("generate recipe: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("generate recipe: %w", ErrEmptyResponse)
	}

	var recipe Recipe
	if err := json.Unmarshal([]byte(text), &recipe); err != nil {
		return nil, fmt.Errorf("generate recipe: decode response: %w", err)
	}
	g.logger.Debug("Generated recipe", zap.String("title", recipe.Title), zap.Int("ingredients", len(recipe.Ingredients)))

	return &recipe, nil
}

// SearchRecipes answers with Google Search grounding and returns the web
// sources the answer cites.
func (g *GenAIGenerator) SearchRecipes(ctx context.Context, query string) (*SearchResult, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.textModel, genai.Text(fmt.Sprintf(searchPrompt, query)), &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	})
	if err != nil {
		return nil, fmt.Errorf("search recipes: %w", err)
	}

	result := &SearchResult{Text: resp.Text()}
	if len(resp.Candidates) > 0 && resp.Candidates[0].GroundingMetadata != nil {
		for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
			if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
				continue
			}
			result.Sources = append(result.Sources, Source{URI: chunk.Web.URI, Title: chunk.Web.Title})
		}
	}

	return result, nil
}

// AnalyzeFridge lists the ingredients visible in a photo.
func (g *GenAIGenerator) AnalyzeFridge(ctx context.Context, image []byte, mimeType string) ([]string, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image, mimeType),
			genai.NewPartFromText(fridgePrompt),
		}, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.textModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("analyze fridge: %w", err)
	}

	items := splitList(resp.Text())
	if len(items) == 0 {
		return nil, fmt.Errorf("analyze fridge: %w", ErrEmptyResponse)
	}

	return items, nil
}

// GenerateFoodImage renders a 16:9 photo of the dish. It returns ErrNoImage
// when the model answers without one.
func (g *GenAIGenerator) GenerateFoodImage(ctx context.Context, title string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.imageModel, genai.Text(fmt.Sprintf(imagePrompt, title)), &genai.GenerateContentConfig{
		ImageConfig: &genai.ImageConfig{AspectRatio: imageAspectRatio},
	})
	if err != nil {
		return "", fmt.Errorf("generate image: %w", err)
	}

	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			return dataURL(part.InlineData.MIMEType, part.InlineData.Data), nil
		}
	}

	return "", ErrNoImage
}

func dataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = defaultImageMIME
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// splitList turns "a, b ,, c" into [a b c].
func splitList(text string) []string {
	var out []string
	for _, item := range strings.Split(text, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
