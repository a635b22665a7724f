// Package kitchen generates recipes, searches for dishes, reads fridge photos
// and keeps the recipe book.
package kitchen

import (
	"errors"

	"google.golang.org/genai"
)

var (
	// ErrNoIngredients is returned when nothing usable is left after trimming.
	ErrNoIngredients = errors.New("no ingredients given")
	// ErrEmptyQuery is returned for a blank search query.
	ErrEmptyQuery = errors.New("search query is empty")
	// ErrEmptyResponse is returned when the model answers with no text.
	ErrEmptyResponse = errors.New("model returned an empty response")
	// ErrNoImage is returned when the image model answers without an image.
	ErrNoImage = errors.New("model returned no image")
)

// Ingredient is one line of a recipe's shopping list.
type Ingredient struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

// Nutrition holds per-serving nutrition estimates. Macros are in grams.
type Nutrition struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// Recipe is a generated recipe.
type Recipe struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	PrepTime     string       `json:"prepTime"`
	CookTime     string       `json:"cookTime"`
	Servings     int          `json:"servings"`
	Difficulty   string       `json:"difficulty"`
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions []string     `json:"instructions"`
	Nutrition    Nutrition    `json:"nutrition"`
	Tags         []string     `json:"tags"`
	// Image is a data URL or a remote URL.
	Image string `json:"image,omitempty"`
}

// Source is a web page the search answer was grounded on.
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// SearchResult is a grounded search answer.
type SearchResult struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources"`
}

// RecipeSchema constrains the model's JSON output to a Recipe without ID and
// Image.
func RecipeSchema() *genai.Schema {
	str := &genai.Schema{Type: genai.TypeString}
	num := &genai.Schema{Type: genai.TypeNumber}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":       str,
			"description": str,
			"prepTime":    str,
			"cookTime":    str,
			"servings":    {Type: genai.TypeInteger},
			"difficulty": {
				Type:   genai.TypeString,
				Format: "enum",
				Enum:   []string{"Easy", "Medium", "Hard"},
			},
			"ingredients": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name":   str,
						"amount": str,
					},
					Required: []string{"name", "amount"},
				},
			},
			"instructions": {Type: genai.TypeArray, Items: str},
			"nutrition": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"calories": num,
					"protein":  num,
					"carbs":    num,
					"fat":      num,
				},
				Required: []string{"calories", "protein", "carbs", "fat"},
			},
			"tags": {Type: genai.TypeArray, Items: str},
		},
		Required: []string{
			"title", "description", "prepTime", "cookTime", "servings",
			"difficulty", "ingredients", "instructions", "nutrition", "tags",
		},
	}
}
