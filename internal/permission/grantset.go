package permission

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/lop-gin/janus/internal"
)

// ManageAction is the sentinel action: granting it for a module grants
// every action on that module.
const ManageAction = "manage"

// SuperAdminRoleName, combined with the system-role flag, short-circuits
// authorization entirely.
const SuperAdminRoleName = "Super Admin"

// GrantSet maps a module name to the set of actions a role allows on it.
// It is stored as a JSONB column on roles.
type GrantSet map[string][]string

// Allows reports whether the set grants action on module, honoring the
// manage sentinel.
func (g GrantSet) Allows(module, action string) bool {
	actions, ok := g[module]
	if !ok {
		return false
	}
	for _, a := range actions {
		if a == ManageAction || a == action {
			return true
		}
	}
	return false
}

// Merge unions other into g module-by-module, collapsing duplicates.
func (g GrantSet) Merge(other GrantSet) {
	for module, actions := range other {
		seen := make(map[string]bool, len(g[module])+len(actions))
		for _, a := range g[module] {
			seen[a] = true
		}
		merged := append([]string(nil), g[module]...)
		for _, a := range actions {
			if !seen[a] {
				seen[a] = true
				merged = append(merged, a)
			}
		}
		sort.Strings(merged)
		g[module] = merged
	}
}

// Validate rejects empty or malformed grant sets. Called at the role
// boundary so bad shapes never reach authorization.
func (g GrantSet) Validate() error {
	if len(g) == 0 {
		return internal.NewValidationError("permissions cannot be empty", internal.ErrCodeEmptyGrantSet)
	}
	for module, actions := range g {
		if module == "" {
			return internal.NewValidationError("permission module name cannot be empty", internal.ErrCodeMalformedGrants)
		}
		if len(actions) == 0 {
			return internal.NewValidationError(
				fmt.Sprintf("module %q must grant at least one action", module),
				internal.ErrCodeMalformedGrants,
			)
		}
		for _, a := range actions {
			if a == "" {
				return internal.NewValidationError(
					fmt.Sprintf("module %q contains an empty action name", module),
					internal.ErrCodeMalformedGrants,
				)
			}
		}
	}
	return nil
}

func (g GrantSet) Value() (driver.Value, error) {
	if g == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(g)
}

func (g *GrantSet) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*g = GrantSet{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("permission: cannot scan %T into GrantSet", value)
	}
	if len(raw) == 0 {
		*g = GrantSet{}
		return nil
	}

	var modules map[string]json.RawMessage
	if err := json.Unmarshal(raw, &modules); err != nil {
		return fmt.Errorf("permission: decode grant set: %w", err)
	}

	out := make(GrantSet, len(modules))
	for module, payload := range modules {
		var actions []string
		if err := json.Unmarshal(payload, &actions); err == nil {
			out[module] = actions
			continue
		}

		// Legacy rows nest actions one level deeper under module-qualified
		// keys. Read-compatibility only; never written back in this shape.
		var nested map[string][]string
		if err := json.Unmarshal(payload, &nested); err != nil {
			return fmt.Errorf("permission: module %q has unrecognized grant shape", module)
		}
		flat := make([]string, 0)
		seen := make(map[string]bool)
		for _, inner := range nested {
			for _, a := range inner {
				if !seen[a] {
					seen[a] = true
					flat = append(flat, a)
				}
			}
		}
		sort.Strings(flat)
		out[module] = flat
	}
	*g = out
	return nil
}
