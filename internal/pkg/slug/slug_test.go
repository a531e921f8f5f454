package slug

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple name", "Wireless Headphones", "wireless-headphones"},
		{"extra whitespace", "  Gaming   Laptop  ", "gaming-laptop"},
		{"diacritics stripped", "Café Crème", "cafe-creme"},
		{"punctuation dropped", "4K Monitor (27\")", "4k-monitor-27"},
		{"already a slug", "usb-c-hub", "usb-c-hub"},
		{"collapses dashes", "one -- two", "one-two"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Make(tt.input))
		})
	}
}

func TestMake_EmptyInputFallsBack(t *testing.T) {
	s := Make("")
	assert.True(t, strings.HasPrefix(s, "product-"))
}

func TestMake_OnlySymbolsFallsBack(t *testing.T) {
	s := Make("!!! ???")
	assert.True(t, strings.HasPrefix(s, "product-"))
}
