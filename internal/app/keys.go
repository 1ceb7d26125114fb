package app

import "github.com/nhle/daybook/internal/keys"

// KeyMap aliases the shared key map type.
type KeyMap = keys.KeyMap

// DefaultKeyMap delegates to keys.DefaultKeyMap.
func DefaultKeyMap() *KeyMap {
	return keys.DefaultKeyMap()
}
