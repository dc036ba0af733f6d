package sorting

import (
	"reflect"
	"testing"

	"github.com/matst80/slask-gallery/pkg/types"
)

func makeItems() []types.Artwork {
	return []types.Artwork{
		{Id: "1", Title: "Beta", Price: "200.00"},
		{Id: "2", Title: "Alpha", Price: "not a price"},
		{Id: "3", Title: "Gamma", Price: "50"},
		{Id: "4", Title: "Alpha", Price: ""},
		{Id: "5", Title: "Delta", Price: "1200.50"},
		{Id: "6", Title: "Delta", Price: "50.0"},
	}
}

func idsOf(items []types.Artwork) []string {
	ret := make([]string, 0, len(items))
	for _, item := range items {
		ret = append(ret, item.Id)
	}
	return ret
}

func TestSortInputOrder(t *testing.T) {
	items := makeItems()
	for _, opt := range []types.SortOption{types.SortDefault, types.SortTitleAsc} {
		if got := idsOf(Sort(items, opt)); !reflect.DeepEqual(got, idsOf(items)) {
			t.Errorf("Expected input order for %s, got %v", opt, got)
		}
	}
}

func TestSortUpstreamTitleAsc(t *testing.T) {
	got := idsOf(SortUpstream(makeItems(), types.SortTitleAsc))
	expected := []string{"2", "4", "1", "5", "6", "3"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
	for _, opt := range []types.SortOption{types.SortDefault, types.SortTitleDesc, types.SortPriceAsc} {
		if got := idsOf(SortUpstream(makeItems(), opt)); !reflect.DeepEqual(got, idsOf(Sort(makeItems(), opt))) {
			t.Errorf("Expected upstream %s to match local sort, got %v", opt, got)
		}
	}
}

func TestSortTitleDesc(t *testing.T) {
	got := idsOf(Sort(makeItems(), types.SortTitleDesc))
	expected := []string{"3", "5", "6", "1", "2", "4"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestSortPrice(t *testing.T) {
	asc := idsOf(Sort(makeItems(), types.SortPriceAsc))
	expectedAsc := []string{"2", "4", "3", "6", "1", "5"}
	if !reflect.DeepEqual(asc, expectedAsc) {
		t.Errorf("Expected %v, got %v", expectedAsc, asc)
	}
	desc := idsOf(Sort(makeItems(), types.SortPriceDesc))
	expectedDesc := []string{"5", "1", "3", "6", "2", "4"}
	if !reflect.DeepEqual(desc, expectedDesc) {
		t.Errorf("Expected %v, got %v", expectedDesc, desc)
	}
}

func TestSortIsStableUnderRepetition(t *testing.T) {
	for _, opt := range types.SortOptions {
		once := Sort(makeItems(), opt)
		twice := Sort(once, opt)
		if !reflect.DeepEqual(idsOf(once), idsOf(twice)) {
			t.Errorf("Expected sort %s to be idempotent, got %v and %v", opt, idsOf(once), idsOf(twice))
		}
	}
}

func TestSortDoesNotModifyInput(t *testing.T) {
	items := makeItems()
	_ = Sort(items, types.SortPriceDesc)
	if !reflect.DeepEqual(idsOf(items), []string{"1", "2", "3", "4", "5", "6"}) {
		t.Errorf("Expected input to be untouched, got %v", idsOf(items))
	}
}

func TestParsePrice(t *testing.T) {
	if !ParsePrice(" 12.50 ").Equal(ParsePrice("12.5")) {
		t.Error("Expected 12.50 to equal 12.5")
	}
	if !ParsePrice("€12").IsZero() {
		t.Error("Expected unparsable price to be zero")
	}
}
