package protocol

import (
	"errors"
	"testing"
)

func TestResolveSceneSpellings(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"green-jade", 71},
		{"green_jade", 71},
		{"Green-Jade", 71},
		{"GREEN_JADE", 71},
		{"green jade", 71},
		{" symphony ", 2},
		{"Space-Time", 45},
		{"space_time", 45},
		{"neon lights", 48},
	}
	for _, tt := range tests {
		got, err := ResolveScene(tt.name)
		if err != nil {
			t.Errorf("ResolveScene(%q) error = %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ResolveScene(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestResolveSceneUnknown(t *testing.T) {
	_, err := ResolveScene("disco-inferno")
	if !errors.Is(err, ErrUnknownScene) {
		t.Errorf("ResolveScene(unknown) error = %v, want ErrUnknownScene", err)
	}
}

func TestSceneNamesSortedAndResolvable(t *testing.T) {
	names := SceneNames()
	if len(names) != len(sceneTable) {
		t.Fatalf("SceneNames() returned %d names, want %d", len(names), len(sceneTable))
	}
	for i, name := range names {
		if i > 0 && names[i-1] >= name {
			t.Errorf("SceneNames() not sorted: %q before %q", names[i-1], name)
		}
		idx, err := ResolveScene(name)
		if err != nil {
			t.Errorf("ResolveScene(%q) error = %v", name, err)
		}
		if idx != SceneIndex(name) {
			t.Errorf("ResolveScene(%q) = %d, want %d", name, idx, SceneIndex(name))
		}
	}
}
