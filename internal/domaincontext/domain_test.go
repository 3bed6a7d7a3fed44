// internal/domaincontext/domain_test.go
package domaincontext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistrableDomain(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"full url", "https://www.vogue.com/fashion/trends", "vogue.com"},
		{"bare domain", "vogue.com", "vogue.com"},
		{"subdomain collapses", "https://shop.mango.com/es", "mango.com"},
		{"uppercase host", "HTTPS://WWW.VOGUE.COM/", "vogue.com"},
		{"country code suffix", "https://www.zara.com.cn/cn/", "zara.com.cn"},
		{"co uk suffix", "https://news.bbc.co.uk/", "bbc.co.uk"},
		{"port stripped", "http://example.com:8080/path", "example.com"},
		{"ip literal keyed as is", "http://127.0.0.1:9222/json", "127.0.0.1"},
		{"localhost falls back to host", "http://localhost:3000/", "localhost"},
		{"empty input", "", ""},
		{"whitespace only", "   ", ""},
		{"about blank", "about:blank", ""},
		{"no scheme with path", "www.vogue.com/fashion", "vogue.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RegistrableDomain(tt.in))
		})
	}
}
