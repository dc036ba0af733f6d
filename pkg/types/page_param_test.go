package types

import (
	"errors"
	"testing"
)

func TestTokenKeepsCursorStates(t *testing.T) {
	cursors := CursorMap{}
	cursors.SetNext("style-abstract", true, "c1")
	cursors.SetNext("style-pop", false, "")
	p := PageParam{
		Source:  SourceCatalog,
		Handles: []string{"style-abstract", "style-pop", "theme-sea"},
		Cursors: cursors,
		Buffers: Buffers{"style-abstract": {MakeMockArtwork("1")}},
	}
	token, err := p.EncodeToken()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	decoded, err := DecodeToken(token)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if decoded.Cursors.State("style-abstract") != CursorActive || decoded.Cursors.After("style-abstract") != "c1" {
		t.Errorf("Expected active cursor c1, got %v", decoded.Cursors["style-abstract"])
	}
	if decoded.Cursors.State("style-pop") != CursorExhausted {
		t.Errorf("Expected exhausted cursor for style-pop, got %v", decoded.Cursors.State("style-pop"))
	}
	if decoded.Cursors.State("theme-sea") != CursorNotStarted {
		t.Errorf("Expected not started cursor for theme-sea, got %v", decoded.Cursors.State("theme-sea"))
	}
	if len(decoded.Buffers["style-abstract"]) != 1 || decoded.Buffers["style-abstract"][0].Id != "1" {
		t.Errorf("Expected buffer to survive, got %v", decoded.Buffers)
	}
}

func TestDecodeEmptyTokenIsCurated(t *testing.T) {
	p, err := DecodeToken("")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if p.Source != SourceCurated {
		t.Errorf("Expected curated source, got %s", p.Source)
	}
}

func TestDecodeInvalidToken(t *testing.T) {
	for _, token := range []string{"%%%", "bm90LWpzb24", "eyJzb3VyY2UiOiJzYW5pdHkifQ"} {
		_, err := DecodeToken(token)
		if !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Expected ErrInvalidToken for %q, got %v", token, err)
		}
	}
}

func TestNextParamFromCuratedSwitchesToCatalog(t *testing.T) {
	r := PageResult{Source: SourceCurated, HasNextPage: true}
	next, ok := r.NextParam()
	if !ok || next.Source != SourceCatalog || next.IsMultiCollection() {
		t.Errorf("Expected plain catalog param, got %+v", next)
	}
}

func TestNextParamCopiesMaps(t *testing.T) {
	cursors := CursorMap{}
	cursors.SetNext("a", true, "x")
	r := PageResult{
		Source:      SourceCatalog,
		HasNextPage: true,
		Handles:     []string{"a"},
		Cursors:     cursors,
		Buffers:     Buffers{"a": {MakeMockArtwork("1")}},
	}
	next, ok := r.NextParam()
	if !ok || !next.IsMultiCollection() {
		t.Fatalf("Expected multi collection param, got %+v", next)
	}
	cursors.SetNext("a", true, "y")
	if next.Cursors.After("a") != "x" {
		t.Errorf("Expected param to own its cursors, got %s", next.Cursors.After("a"))
	}
	done := PageResult{Source: SourceCatalog}
	if _, ok := done.NextParam(); ok {
		t.Error("Expected no next param without next page")
	}
}
