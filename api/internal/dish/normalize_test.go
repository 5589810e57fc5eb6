package dish

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"menu-lens/api/internal/scanerr"
)

const menuJSON = `{
  "isMenu": true,
  "dishes": [
    {"name":"Miso Soup","originalName":"味噌汁","englishName":"miso soup","description":"Soybean paste broth.","tags":["savory","umami"],"allergens":["soy"],"spiceLevel":"None","category":"Soup","boundingBox":[100,50,140,400]},
    {"name":"Spicy Ramen","originalName":"辛ラーメン","englishName":"spicy ramen","description":"Noodles.","tags":["spicy"],"allergens":["wheat","egg"],"spiceLevel":"hot","category":"Main","boundingBox":null},
    {"name":"","originalName":"抹茶アイス","englishName":"","description":"","spiceLevel":"None","category":"Dessert"}
  ]
}`

const photoJSON = `{"isMenu":false,"dishes":[{"name":"Pad Thai","originalName":"ผัดไทย","englishName":"pad thai","description":"Stir-fried noodles.","tags":["sweet","nutty"],"allergens":[],"spiceLevel":"Mild","category":"Main","boundingBox":[200,100,600,400]}]}`

var scanStart = time.UnixMilli(1700000000000)

func TestNormalizeMenu(t *testing.T) {
	n := NewNormalizer("https://img.example/prompt/")
	dishes, isMenu, err := n.Normalize(menuJSON, scanStart, "photo://abc")
	if err != nil {
		t.Fatal(err)
	}
	if !isMenu || len(dishes) != 3 {
		t.Fatalf("isMenu=%v len=%d", isMenu, len(dishes))
	}

	seen := map[string]bool{}
	for i, d := range dishes {
		if !d.IsMenu {
			t.Fatalf("dish %d lost isMenu", i)
		}
		if seen[d.ID] {
			t.Fatalf("duplicate id %s", d.ID)
		}
		seen[d.ID] = true
		if !strings.HasPrefix(d.Image, "https://img.example/prompt/") {
			t.Fatalf("menu dish %d should get an illustration, got %q", i, d.Image)
		}
	}
	if dishes[0].ID != "1700000000000-0" || dishes[2].ID != "1700000000000-2" {
		t.Fatalf("ids not timestamp+index: %s %s", dishes[0].ID, dishes[2].ID)
	}
	if dishes[0].Name != "Miso Soup" || dishes[1].Name != "Spicy Ramen" {
		t.Fatal("service order must be kept")
	}
	if dishes[1].SpiceLevel != SpiceHot || dishes[1].BoundingBox != nil {
		t.Fatalf("dish 1: %+v", dishes[1])
	}
	if dishes[2].Tags == nil || dishes[2].Allergens == nil || len(dishes[2].Allergens) != 0 {
		t.Fatal("missing tags/allergens must become empty slices")
	}
	if !strings.Contains(dishes[2].Image, "%E6%8A%B9%E8%8C%B6") {
		t.Fatalf("illustration should fall back to originalName, got %q", dishes[2].Image)
	}
}

func TestNormalizePhotoUsesUploadedRef(t *testing.T) {
	dishes, isMenu, err := NewNormalizer("https://img.example/").Normalize(photoJSON, scanStart, "photo://abc")
	if err != nil {
		t.Fatal(err)
	}
	if isMenu || dishes[0].IsMenu {
		t.Fatal("photo scan must not be a menu")
	}
	if dishes[0].Image != "photo://abc" {
		t.Fatalf("image = %q", dishes[0].Image)
	}
	want := BoundingBox{200, 100, 600, 400}
	if dishes[0].BoundingBox == nil || *dishes[0].BoundingBox != want {
		t.Fatalf("box changed: %v", dishes[0].BoundingBox)
	}
}

func TestNormalizeFencedEqualsUnfenced(t *testing.T) {
	n := NewNormalizer("https://img.example/")
	plain, _, err := n.Normalize(menuJSON, scanStart, "photo://abc")
	if err != nil {
		t.Fatal(err)
	}
	for _, wrapped := range []string{
		"```json\n" + menuJSON + "\n```",
		"```\n" + menuJSON + "\n```",
		"Sure! Here you go:\n```json\n" + menuJSON + "\n```\nLet me know.",
	} {
		fenced, _, err := n.Normalize(wrapped, scanStart, "photo://abc")
		if err != nil {
			t.Fatalf("fenced: %v", err)
		}
		if !reflect.DeepEqual(plain, fenced) {
			t.Fatal("fenced and unfenced responses normalize differently")
		}
	}
}

func TestNormalizeEmptyDishList(t *testing.T) {
	dishes, isMenu, err := NewNormalizer("").Normalize(`{"isMenu":true,"dishes":[]}`, scanStart, "")
	if err != nil || !isMenu || len(dishes) != 0 {
		t.Fatalf("got %v %v %v", dishes, isMenu, err)
	}
}

func TestNormalizeRejects(t *testing.T) {
	cases := map[string]struct {
		raw   string
		field string
		index int
	}{
		"not json":          {"I could not read the menu, sorry.", "", -1},
		"missing isMenu":    {`{"dishes":[]}`, "isMenu", -1},
		"missing dishes":    {`{"isMenu":false}`, "dishes", -1},
		"no names":          {`{"isMenu":false,"dishes":[{"spiceLevel":"None"}]}`, "name", 0},
		"missing spice":     {`{"isMenu":false,"dishes":[{"name":"a","spiceLevel":"None"},{"name":"b"}]}`, "spiceLevel", 1},
		"bad spice":         {`{"isMenu":false,"dishes":[{"name":"a","spiceLevel":"Volcanic"}]}`, "spiceLevel", 0},
		"short box":         {`{"isMenu":false,"dishes":[{"name":"a","spiceLevel":"Mild","boundingBox":[1,2,3]}]}`, "boundingBox", 0},
		"out of range box":  {`{"isMenu":false,"dishes":[{"name":"a","spiceLevel":"Mild","boundingBox":[0,0,1200,10]}]}`, "boundingBox", 0},
		"inverted box":      {`{"isMenu":false,"dishes":[{"name":"a","spiceLevel":"Mild","boundingBox":[500,0,100,10]}]}`, "boundingBox", 0},
		"wrong isMenu type": {`{"isMenu":"yes","dishes":[]}`, "", -1},
	}
	n := NewNormalizer("https://img.example/")
	for name, c := range cases {
		dishes, _, err := n.Normalize(c.raw, scanStart, "photo://abc")
		var pe *scanerr.AnalysisParseError
		if !errors.As(err, &pe) {
			t.Fatalf("%s: expected AnalysisParseError, got %v", name, err)
		}
		if dishes != nil {
			t.Fatalf("%s: partial batch must be rejected wholesale", name)
		}
		if pe.Field != c.field || pe.Index != c.index {
			t.Fatalf("%s: got field=%q index=%d", name, pe.Field, pe.Index)
		}
	}
}

func TestSpiceIntensity(t *testing.T) {
	want := map[SpiceLevel]int{SpiceNone: 0, SpiceMild: 1, SpiceMedium: 2, SpiceHot: 3}
	for lvl, n := range want {
		if lvl.Intensity() != n {
			t.Fatalf("%s intensity %d", lvl, lvl.Intensity())
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	box := BoundingBox{1, 2, 3, 4}
	d := Dish{ID: "x", Tags: []string{"a"}, Allergens: []string{"nuts"}, BoundingBox: &box}
	c := d.Clone()
	c.Tags[0] = "changed"
	c.BoundingBox[0] = 99
	if d.Tags[0] != "a" || d.BoundingBox[0] != 1 {
		t.Fatal("clone shares memory with the original")
	}
}

func TestIllustrationURL(t *testing.T) {
	if IllustrationURL("https://x/", "") != "" {
		t.Fatal("empty query should yield no image")
	}
	got := IllustrationURL("https://x/search?q={query}", "pad thai")
	if !strings.HasPrefix(got, "https://x/search?q=appetizing+photo+of+pad+thai") {
		t.Fatalf("template: %q", got)
	}
	got = IllustrationURL("https://x/prompt", "pad thai")
	if !strings.HasPrefix(got, "https://x/prompt/appetizing%20photo%20of%20pad%20thai") {
		t.Fatalf("path: %q", got)
	}
}
