package present

import (
	"testing"

	"menu-lens/api/internal/dish"
)

func TestSelectLayout(t *testing.T) {
	d := dish.Dish{ID: "1"}
	cases := []struct {
		in   []dish.Dish
		want Layout
	}{
		{nil, LayoutEmpty},
		{[]dish.Dish{}, LayoutEmpty},
		{[]dish.Dish{d}, LayoutSingle},
		{[]dish.Dish{d, d}, LayoutList},
		{[]dish.Dish{d, d, d, d}, LayoutList},
	}
	for _, c := range cases {
		if got := SelectLayout(c.in); got != c.want {
			t.Fatalf("%d dishes: got %s want %s", len(c.in), got, c.want)
		}
	}
}

func TestThumbnailFocalFromBox(t *testing.T) {
	box := dish.BoundingBox{200, 100, 600, 400}
	th := ThumbnailFor(dish.Dish{ID: "a", Image: "photo://p", BoundingBox: &box})
	if th.FocalX != 25 || th.FocalY != 40 {
		t.Fatalf("focal = (%v%%, %v%%), want (25%%, 40%%)", th.FocalX, th.FocalY)
	}
	if th.Zoom <= 1 {
		t.Fatal("box framing should zoom in")
	}
	if th.ObjectPosition() != "25% 40%" {
		t.Fatalf("object-position %q", th.ObjectPosition())
	}
}

func TestThumbnailMenuIgnoresBox(t *testing.T) {
	box := dish.BoundingBox{200, 100, 600, 400}
	th := ThumbnailFor(dish.Dish{ID: "a", IsMenu: true, BoundingBox: &box})
	if th.FocalX != 50 || th.FocalY != 50 || th.Zoom != 1 {
		t.Fatalf("menu thumbnail should be plain cover, got %+v", th)
	}
	th = ThumbnailFor(dish.Dish{ID: "b"})
	if th.FocalX != 50 || th.Zoom != 1 {
		t.Fatalf("photo without box should be centred, got %+v", th)
	}
}

func TestLabels(t *testing.T) {
	if SpiceMeter(dish.SpiceMedium) != "🌶🌶·" {
		t.Fatalf("meter %q", SpiceMeter(dish.SpiceMedium))
	}
	if AllergenLabel(nil) != "No allergens detected" || AllergenLabel([]string{"soy", "egg"}) != "soy, egg" {
		t.Fatal("allergen label")
	}
}

func TestBuild(t *testing.T) {
	v := Build(nil)
	if v.Layout != LayoutEmpty || v.Dishes == nil {
		t.Fatalf("empty view %+v", v)
	}
	v = Build([]dish.Dish{{ID: "1"}, {ID: "2"}})
	if v.Layout != LayoutList || len(v.Thumbnails) != 2 {
		t.Fatalf("list view %+v", v)
	}
}
