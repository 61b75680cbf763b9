package relevance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "AQUISIÇÃO", "aquisicao"},
		{"folds diacritics", "construção de creche pré-escolar", "construcao de creche pre-escolar"},
		{"punctuation to space", "obra,reforma;ampliação", "obra reforma ampliacao"},
		{"collapses whitespace", "  material   de \t escritório ", "material de escritorio"},
		{"keeps digits and hyphens", "Pregão 011/2026 - lote-2", "pregao 011 2026 - lote-2"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeText(tt.in))
		})
	}
}

func TestContainsWholeTerm(t *testing.T) {
	text := NormalizeText("Aquisição de merenda escolar para rede municipal")

	assert.True(t, containsWholeTerm(text, "merenda"))
	assert.True(t, containsWholeTerm(text, "merenda escolar"), "contiguous phrase matches")
	assert.False(t, containsWholeTerm(text, "rend"), "no substring match inside a longer word")
	assert.False(t, containsWholeTerm(text, "merenda municipal"), "non-contiguous words do not match")
	assert.False(t, containsWholeTerm("", "merenda"))
	assert.False(t, containsWholeTerm(text, ""))
}
