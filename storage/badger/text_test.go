package badger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"lowercases and trims punctuation", "Hello, World!", []string{"hello", "world"}},
		{"drops stop words", "the cat and the hat", []string{"cat", "hat"}},
		{"empty", "", []string{}},
		{"only punctuation", "... !!", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tokenize(tt.text))
		})
	}
}

func TestFuzzyEntityMatch(t *testing.T) {
	tests := []struct {
		indexed, query string
		want           bool
	}{
		{"acme corp", "acme corp", true},
		{"acme corporation", "acme", true},
		{"acme", "acme corporation", true},
		{"berlin", "paris", false},
		{"ab", "abc", false},
		{"x", "x", true},
	}
	for _, tt := range tests {
		t.Run(tt.indexed+"/"+tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, fuzzyEntityMatch(tt.indexed, tt.query))
		})
	}
}
