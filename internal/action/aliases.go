package action

import "strings"

// InteractAlias is the persisted spelling of the interact action.
const InteractAlias = "interact"

var defaultAliases = map[string]Action{
	InteractAlias: Interact,
}

// DefaultAliases returns a copy of the string spellings accepted for
// string-shaped joint-action elements.
func DefaultAliases() map[string]Action {
	out := make(map[string]Action, len(defaultAliases))
	for k, v := range defaultAliases {
		out[k] = v
	}
	return out
}

// CanonicalAlias normalizes a string element before alias lookup.
func CanonicalAlias(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
