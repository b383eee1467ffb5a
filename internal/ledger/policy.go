package ledger

import "fmt"

// IDPolicy decides what Import does with an id that is already taken.
type IDPolicy string

const (
	// PolicyRegenerate gives colliding records a fresh id.
	PolicyRegenerate IDPolicy = "regenerate"
	// PolicyKeep stores records as they come, duplicates included.
	PolicyKeep IDPolicy = "keep"
)

func (p IDPolicy) IsValid() bool {
	return p == PolicyRegenerate || p == PolicyKeep
}

// ParseIDPolicy maps a configuration value to a policy. Empty means regenerate.
func ParseIDPolicy(s string) (IDPolicy, error) {
	if s == "" {
		return PolicyRegenerate, nil
	}
	p := IDPolicy(s)
	if !p.IsValid() {
		return "", fmt.Errorf("unknown import id policy %q (valid: %s, %s)", s, PolicyRegenerate, PolicyKeep)
	}
	return p, nil
}
