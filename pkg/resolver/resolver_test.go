package resolver

import (
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/matst80/slask-gallery/pkg/types"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Abstract":          "abstract",
		"  Pop Art ":        "pop-art",
		"Déjà Vu & Co.":     "deja-vu-co",
		"Hilma af Klint":    "hilma-af-klint",
		"Åsa Öberg":         "asa-oberg",
		"--Still--Life--":   "still-life",
		"!!!":               "",
		"Works on paper #2": "works-on-paper-2",
	}
	for input, expected := range cases {
		if got := Slugify(input); got != expected {
			t.Errorf("Expected %q for %q, got %q", expected, input, got)
		}
	}
}

func TestResolveEmptyFilters(t *testing.T) {
	r := NewDefaultResolver()
	res := r.Resolve(types.FilterState{})
	if !res.IsEmpty() {
		t.Errorf("Expected no handles, got %v", res.Handles)
	}
}

func TestResolveDimensions(t *testing.T) {
	r := NewDefaultResolver()
	res := r.Resolve(types.FilterState{
		Styles:     []string{"Abstract", "Pop Art"},
		Categories: []string{"Painting"},
		Themes:     []string{"Sea"},
		Artists:    []string{"Ada Lovelace"},
	})
	expected := []string{
		"style-abstract",
		"style-pop-art",
		"category-painting",
		"theme-sea",
		"artist-ada-lovelace",
		"ada-lovelace",
	}
	if !reflect.DeepEqual(res.Handles, expected) {
		t.Errorf("Expected %v, got %v", expected, res.Handles)
	}
	if res.Labels["ada-lovelace"] != "Ada Lovelace" {
		t.Errorf("Expected label Ada Lovelace, got %q", res.Labels["ada-lovelace"])
	}
}

func TestResolveDeduplicatesHandles(t *testing.T) {
	r := NewResolver(Config{
		StylePrefix:    "c-",
		CategoryPrefix: "c-",
		ThemePrefix:    "theme-",
		ArtistSchemes:  []string{"{slug}", "{slug}"},
	})
	res := r.Resolve(types.FilterState{
		Styles:     []string{"Print", "print"},
		Categories: []string{"Print"},
		Artists:    []string{"Bea"},
	})
	if !reflect.DeepEqual(res.Handles, []string{"c-print", "bea"}) {
		t.Errorf("Expected [c-print bea], got %v", res.Handles)
	}
}

func TestResolveIsConcurrencySafe(t *testing.T) {
	r := NewDefaultResolver()
	f := types.FilterState{Styles: []string{"Café"}, Artists: []string{"Zoë"}}
	expected := r.Resolve(f).Handles
	wg := sync.WaitGroup{}
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := r.Resolve(f).Handles; !reflect.DeepEqual(got, expected) {
				t.Errorf("Expected %v, got %v", expected, got)
			}
		}()
	}
	wg.Wait()
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resolver.yaml")
	err := os.WriteFile(path, []byte("style_prefix: s-\nartist_schemes:\n  - \"artists-{slug}\"\n"), 0644)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.StylePrefix != "s-" || cfg.ThemePrefix != "theme-" {
		t.Errorf("Expected overridden style prefix and default theme prefix, got %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.ArtistSchemes, []string{"artists-{slug}"}) {
		t.Errorf("Expected single artist scheme, got %v", cfg.ArtistSchemes)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	_ = os.WriteFile(bad, []byte("artist_schemes: [\"artist\"]\n"), 0644)
	if _, err := LoadConfig(bad); err == nil {
		t.Error("Expected error for scheme without placeholder")
	}
}
