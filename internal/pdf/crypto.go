package pdf

import (
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PasswordCredentials contains the passwords for a PDF file.
type PasswordCredentials struct {
	UserPassword  string `json:"user_password,omitempty"`
	OwnerPassword string `json:"owner_password,omitempty"`
}

// Empty reports whether no password is set.
func (c *PasswordCredentials) Empty() bool {
	return c == nil || (c.UserPassword == "" && c.OwnerPassword == "")
}

// newReadConfiguration creates a relaxed read configuration with the provided credentials.
func newReadConfiguration(creds *PasswordCredentials) *model.Configuration {
	config := model.NewDefaultConfiguration()
	config.ValidationMode = model.ValidationRelaxed

	if !creds.Empty() {
		config.UserPW = creds.UserPassword
		config.OwnerPW = creds.OwnerPassword
	}
	return config
}

// looksEncrypted reports whether a pdfcpu read error is about encryption.
// pdfcpu does not export typed errors for this, so the message is matched;
// the substring set is not guaranteed to be complete.
func looksEncrypted(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "encrypted") ||
		strings.Contains(msg, "password") ||
		strings.Contains(msg, "decrypt")
}
