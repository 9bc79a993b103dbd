package domain

import (
	"fmt"
	"strings"
)

// Domain is a named grouping of tools used to selectively enable
// subsets of the catalog at startup. Every tool belongs to exactly one
// domain.
type Domain string

const (
	DomainAdvancedSecurity Domain = "advanced-security"
	DomainCore             Domain = "core"
	DomainPipelines        Domain = "pipelines"
	DomainRepositories     Domain = "repositories"
	DomainSearch           Domain = "search"
	DomainTestPlans        Domain = "test-plans"
	DomainWiki             Domain = "wiki"
	DomainWork             Domain = "work"
	DomainWorkItems        Domain = "work-items"

	// AllDomains is the reserved pseudo-domain meaning every known domain.
	AllDomains = "all"
)

// AvailableDomains lists every concrete domain in stable order.
func AvailableDomains() []Domain {
	return []Domain{
		DomainAdvancedSecurity,
		DomainCore,
		DomainPipelines,
		DomainRepositories,
		DomainSearch,
		DomainTestPlans,
		DomainWiki,
		DomainWork,
		DomainWorkItems,
	}
}

// ResolveDomains normalizes the requested domain names (case-insensitive,
// deduplicated) into the set of enabled domains. "all" unions every
// concrete domain and is idempotent when combined with other names.
// Unknown names and an empty request fail before any tool is registered.
func ResolveDomains(requested []string) (map[Domain]bool, error) {
	known := make(map[Domain]bool, len(AvailableDomains()))
	for _, d := range AvailableDomains() {
		known[d] = true
	}

	cleaned := make([]string, 0, len(requested))
	for _, name := range requested {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			cleaned = append(cleaned, name)
		}
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("%w: at least one domain (or %q) must be requested", ErrUnknownDomain, AllDomains)
	}

	enabled := make(map[Domain]bool)
	for _, name := range cleaned {
		if name == AllDomains {
			for d := range known {
				enabled[d] = true
			}
			continue
		}
		if !known[Domain(name)] {
			return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownDomain, name, joinDomains(AvailableDomains()))
		}
		enabled[Domain(name)] = true
	}
	return enabled, nil
}

func joinDomains(domains []Domain) string {
	names := make([]string, len(domains))
	for i, d := range domains {
		names[i] = string(d)
	}
	return strings.Join(names, ", ")
}
