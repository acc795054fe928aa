// Package probe classifies inbound traffic as human or automated
// platform verification. Meta crawls redirect URLs attached to ads
// before serving them; those probes must never produce Kommo leads.
package probe

import "strings"

// Classifier decides whether a request comes from a platform
// verification crawler based on its source IP. The prefix list is
// configuration, not logic.
type Classifier struct {
	prefixes []string
}

// NewClassifier creates a classifier from a list of IP prefixes
func NewClassifier(prefixes []string) *Classifier {
	return &Classifier{prefixes: prefixes}
}

// IsVerificationIP reports whether the IP falls in a known verification
// crawler range.
func (c *Classifier) IsVerificationIP(ip string) bool {
	if ip == "" {
		return false
	}
	for _, prefix := range c.prefixes {
		if prefix != "" && strings.HasPrefix(ip, prefix) {
			return true
		}
	}
	return false
}
