// Package securitytest provides test doubles for the security package.
package securitytest

import (
	"github.com/flemzord/doorman/internal/security"
)

// NewTestRedactor creates a Redactor with no patterns, so test fixtures that
// look like bot tokens stay readable in assertions. Literals may be added.
func NewTestRedactor(literals ...string) *security.Redactor {
	r := &security.Redactor{}
	r.AddLiteral(literals...)
	return r
}
