package commands

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Raikerian/go-lumina-kitchen/internal/kitchen"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeRecipe(w io.Writer, r *kitchen.Recipe) error {
	var b strings.Builder

	b.WriteString(r.Title + "\n")
	if r.Description != "" {
		b.WriteString(r.Description + "\n")
	}
	fmt.Fprintf(&b, "\nPrep: %s · Cook: %s · Serves: %d · Difficulty: %s\n", r.PrepTime, r.CookTime, r.Servings, r.Difficulty)

	b.WriteString("\nIngredients\n")
	for _, ing := range r.Ingredients {
		fmt.Fprintf(&b, "  - %s\n", strings.TrimSpace(ing.Amount+" "+ing.Name))
	}

	b.WriteString("\nInstructions\n")
	for i, step := range r.Instructions {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, step)
	}

	n := r.Nutrition
	fmt.Fprintf(&b, "\nNutrition per serving: %s kcal · protein %sg · carbs %sg · fat %sg\n",
		number(n.Calories), number(n.Protein), number(n.Carbs), number(n.Fat))

	if len(r.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(r.Tags, ", "))
	}
	fmt.Fprintf(&b, "Image: %s\n", describeImage(r.Image))
	fmt.Fprintf(&b, "ID: %s\n", r.ID)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeSearch(w io.Writer, res *kitchen.SearchResult) error {
	var b strings.Builder

	b.WriteString(strings.TrimSpace(res.Text) + "\n")
	if len(res.Sources) > 0 {
		b.WriteString("\nSources\n")
		for _, src := range res.Sources {
			title := src.Title
			if title == "" {
				title = src.URI
			}
			fmt.Fprintf(&b, "  - %s <%s>\n", title, src.URI)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func number(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// describeImage keeps multi-megabyte data URLs off the terminal.
func describeImage(image string) string {
	mimeType, data, err := decodeDataURL(image)
	if err != nil {
		return image
	}
	return fmt.Sprintf("embedded %s (%d bytes, save with --image-out)", mimeType, len(data))
}

var errNotDataURL = errors.New("not a base64 data URL")

// decodeDataURL parses "data:<mime>;base64,<payload>".
func decodeDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, errNotDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errNotDataURL
	}
	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, errNotDataURL
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode image: %w", err)
	}
	return mimeType, data, nil
}

// saveImage writes an embedded photo to path. Remote images are not
// downloaded.
func saveImage(path, image string) error {
	_, data, err := decodeDataURL(image)
	if errors.Is(err, errNotDataURL) {
		return fmt.Errorf("no generated photo to save, the recipe uses %s", image)
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}
