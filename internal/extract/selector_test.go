package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectBest(t *testing.T) {
	tests := []struct {
		name       string
		candidates []string
		site       string
		want       string
	}{
		{"domain match beats order", []string{"sales@other.com", "info@acme.com"}, "acme.com", "info@acme.com"},
		{"www stripped", []string{"jane@gmail.com", "jane@acme.com"}, "www.acme.com", "jane@acme.com"},
		{"url accepted", []string{"jane@gmail.com", "jane@acme.com"}, "https://www.acme.com/contact", "jane@acme.com"},
		{"case insensitive", []string{"x@gmail.com", "Owner@ACME.com"}, "acme.com", "Owner@ACME.com"},
		{"registrable domain", []string{"x@gmail.com", "ops@mail.acme.co.uk"}, "shop.acme.co.uk", "ops@mail.acme.co.uk"},
		{"generic mailbox", []string{"jane@gmail.com", "office@partner.net"}, "acme.com", "office@partner.net"},
		{"generic prefix", []string{"bob@x.com", "contactus@y.com"}, "acme.com", "contactus@y.com"},
		{"first fallback", []string{"bob@x.com", "jane@y.com"}, "acme.com", "bob@x.com"},
		{"no site", []string{"bob@x.com", "info@y.com"}, "", "info@y.com"},
		{"empty", nil, "acme.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectBest(tt.candidates, tt.site))
		})
	}
}
