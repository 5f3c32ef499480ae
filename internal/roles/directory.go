package roles

import (
	"strings"

	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/utils"
	"go.uber.org/zap"
)

// Directory decides whether a sender is support staff or a customer
type Directory struct {
	domains   map[string]bool
	addresses map[string]bool
	logger    *zap.Logger
}

// NewDirectory creates a new sender role directory
func NewDirectory(domains, addresses []string, logger *zap.Logger) *Directory {
	d := &Directory{
		domains:   make(map[string]bool, len(domains)),
		addresses: make(map[string]bool, len(addresses)),
		logger:    logger,
	}

	// Normalize entries (lowercase)
	for _, domain := range domains {
		if domain = strings.ToLower(strings.TrimSpace(domain)); domain != "" {
			d.domains[strings.TrimPrefix(domain, "@")] = true
		}
	}
	for _, addr := range addresses {
		if addr = strings.ToLower(strings.TrimSpace(addr)); addr != "" {
			d.addresses[addr] = true
		}
	}

	if len(d.domains)+len(d.addresses) > 0 && logger != nil {
		logger.Info("Initialized sender role directory",
			zap.Int("support_domains", len(d.domains)),
			zap.Int("support_addresses", len(d.addresses)))
	}

	return d
}

// IsSupport checks if the sender belongs to the support team
func (d *Directory) IsSupport(from string) bool {
	addr := strings.ToLower(utils.ExtractAddress(from))
	if d.addresses[addr] {
		return true
	}

	// Extract domain from email address
	parts := strings.Split(addr, "@")
	if len(parts) != 2 {
		return false
	}
	if d.domains[parts[1]] {
		if d.logger != nil {
			d.logger.Debug("Sender domain belongs to support",
				zap.String("domain", parts[1]),
				zap.String("email", addr))
		}
		return true
	}
	return false
}

// RoleOf returns the role for a sender
func (d *Directory) RoleOf(from string) core.SenderRole {
	if d.IsSupport(from) {
		return core.RoleSupport
	}
	return core.RoleCustomer
}
