package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompact(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "nil stays nil", in: nil, want: nil},
		{name: "empty stays empty", in: []string{}, want: []string{}},
		{name: "trims and drops blanks", in: []string{" a ", "", "   ", "b"}, want: []string{"a", "b"}},
		{name: "keeps case and first-seen order", in: []string{"PEP match", "b", "PEP match ", "pep match"}, want: []string{"PEP match", "b", "pep match"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compact(tt.in))
		})
	}
}

func TestNormalizeKeys(t *testing.T) {
	assert.Equal(t, []string{"peps", "document"}, NormalizeKeys([]string{" PEPs", "document", "peps ", ""}))
	assert.Nil(t, NormalizeKeys(nil))
}
