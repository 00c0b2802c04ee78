package requestlog

import (
	"strings"

	"github.com/mssola/useragent"
)

// SummarizeClient reduces a User-Agent header to "Browser Version / OS", or
// "bot:Name" for crawlers. Empty input yields "".
func SummarizeClient(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	ua := useragent.New(header)
	name, version := ua.Browser()
	if ua.Bot() {
		return "bot:" + name
	}
	var parts []string
	if name != "" {
		parts = append(parts, strings.TrimSpace(name+" "+majorVersion(version)))
	}
	if os := ua.OS(); os != "" {
		parts = append(parts, os)
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, " / ")
}

func majorVersion(v string) string {
	if i := strings.IndexByte(v, '.'); i >= 0 {
		return v[:i]
	}
	return v
}
