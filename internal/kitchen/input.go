package kitchen

import (
	"fmt"
	"net/http"
	"os"
)

// ParseIngredients accepts both "a b" and "a, b" style arguments.
func ParseIngredients(args ...string) []string {
	var out []string
	for _, arg := range args {
		out = append(out, splitList(arg)...)
	}
	return out
}

// ReadPhoto loads a fridge photo and sniffs its mime type.
func ReadPhoto(path string) ([]byte, string, error) {
	photo, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read photo: %w", err)
	}
	return photo, http.DetectContentType(photo), nil
}
