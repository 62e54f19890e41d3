package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{input: "Kebab", expected: "Kebab"},
		{input: "  Chicken \n\t Kebab  ", expected: "Chicken Kebab"},
		{input: "Soup\u0000", expected: "Soup"},
		{input: "چلو\u200cکباب", expected: "چلو\u200cکباب"},
		{input: "\n\n", expected: ""},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, CleanText(test.input))
	}
}

func TestSearchKey(t *testing.T) {
	require.Equal(t, "chickenkebab", SearchKey(" Chicken  Kebab\n"))
	require.Equal(t, "چلوکباب", SearchKey("چلو\u200cکباب"))
}

func TestMatchName(t *testing.T) {
	require.True(t, MatchName("Chicken Kebab", []string{"kebab"}))
	require.True(t, MatchName("Rice", []string{"soup", "ric"}))
	require.False(t, MatchName("Rice", []string{"soup"}))
}
