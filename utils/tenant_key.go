package utils

import (
	"fmt"
	"strings"
)

// PlaceholderToken is the literal marker templates embed so the deployed site
// can call back into the API with its own identity. The orchestrator swaps it
// for the real tenant id during publish.
const PlaceholderToken = "const tenantId = 'null';"

// DeriveDatabaseName builds the deterministic per-tenant database name from
// (ownerID, projectID). The same pair always maps to the same name so lookups
// and teardown never need a side channel.
// Format: ecom-<last 6 of ownerID>-<first 8 of projectID>
func DeriveDatabaseName(ownerID, projectID string) string {
	shortOwner := ownerID
	if len(shortOwner) > 6 {
		shortOwner = shortOwner[len(shortOwner)-6:]
	}
	shortProject := projectID
	if len(shortProject) > 8 {
		shortProject = shortProject[:8]
	}
	return sanitizeDatabaseName(fmt.Sprintf("ecom-%s-%s", shortOwner, shortProject))
}

// sanitizeDatabaseName lowercases and collapses anything outside [a-z0-9-]
// into dashes so the name is valid for every provisioner backend.
func sanitizeDatabaseName(name string) string {
	name = strings.ToLower(name)
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// SubstituteTenantID replaces the placeholder token with an assignment of the
// real tenant id. Substitution is purely textual; content without the marker
// is returned unchanged.
func SubstituteTenantID(content, tenantID string) string {
	replacement := fmt.Sprintf("const tenantId = '%s';", tenantID)
	return strings.Replace(content, PlaceholderToken, replacement, 1)
}

// NormalizePhoneNumber strips everything except digits from a destination
// address. Channel prefixes are the relay's concern, not the caller's.
func NormalizePhoneNumber(destination string) string {
	var b strings.Builder
	b.Grow(len(destination))
	for _, r := range destination {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
