package requestlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeClient(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"empty", "", ""},
		{
			"desktop chrome",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Chrome 120 / Windows 10",
		},
		{
			"crawler",
			"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
			"bot:Googlebot",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SummarizeClient(tt.header))
		})
	}
}

func TestSummarizeClient_CommandLineTools(t *testing.T) {
	got := SummarizeClient("curl/8.4.0")
	assert.NotEmpty(t, got)
}
