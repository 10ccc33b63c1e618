package protocol

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownScene is returned when a scene name is not in the table.
var ErrUnknownScene = errors.New("protocol: unknown scene")

// sceneTable maps TG609 effect names to the scene index sent with CmdScene.
// Indices were captured from the MeRGBW app; hyphen and underscore spellings
// both resolve.
var sceneTable = map[string]int{
	"symphony":     2,
	"energy":       3,
	"jump":         4,
	"vitality":     7,
	"accumulation": 16,
	"chase":        23,
	"space-time":   45,
	"ephemeral":    35,
	"flow":         55,
	"forest":       13,
	"neon-lights":  48,
	"green-jade":   71,
	"running":      91,
	"pink-light":   109,
	"alarm":        113,
	"aurora":       59,
	"rainbow":      26,
	"melody":       32,
}

// ResolveScene maps a human scene name to its index. Matching is
// case-insensitive and treats spaces, hyphens and underscores as
// interchangeable.
func ResolveScene(name string) (int, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
	if idx, ok := sceneTable[strings.ReplaceAll(key, "_", "-")]; ok {
		return idx, nil
	}
	if idx, ok := sceneTable[strings.ReplaceAll(key, "-", "_")]; ok {
		return idx, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownScene, name)
}

// SceneNames returns the known scene names in sorted order.
func SceneNames() []string {
	names := make([]string, 0, len(sceneTable))
	for name := range sceneTable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SceneIndex returns the index for a canonical scene name. Exposed for the
// CLI's scene listing.
func SceneIndex(name string) int {
	return sceneTable[name]
}
