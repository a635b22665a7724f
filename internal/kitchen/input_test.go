package kitchen_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raikerian/go-lumina-kitchen/internal/kitchen"
)

func TestParseIngredients(t *testing.T) {
	tests := map[string]struct {
		args     []string
		expected []string
	}{
		"separate args":     {args: []string{"eggs", "milk"}, expected: []string{"eggs", "milk"}},
		"comma separated":   {args: []string{"eggs, milk,flour"}, expected: []string{"eggs", "milk", "flour"}},
		"mixed with blanks": {args: []string{"eggs,", " ", "coconut milk"}, expected: []string{"eggs", "coconut milk"}},
		"nothing":           {args: nil, expected: nil},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, kitchen.ParseIngredients(tc.args...))
		})
	}
}

func TestReadPhoto(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fridge.png")
	png := []byte("\x89PNG\r\n\x1a\n0000")
	require.NoError(t, os.WriteFile(path, png, 0o600))

	data, mimeType, err := kitchen.ReadPhoto(path)
	require.NoError(t, err)
	assert.Equal(t, png, data)
	assert.Equal(t, "image/png", mimeType)

	_, _, err = kitchen.ReadPhoto(filepath.Join(t.TempDir(), "missing.jpg"))
	assert.Error(t, err)
}
