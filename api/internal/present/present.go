// Package present decides how a result set is laid out and how each
// thumbnail is framed.
package present

import (
	"fmt"
	"strings"

	"menu-lens/api/internal/dish"
)

type Layout string

const (
	LayoutEmpty  Layout = "empty"
	LayoutSingle Layout = "single"
	LayoutList   Layout = "list"
)

func SelectLayout(dishes []dish.Dish) Layout {
	switch len(dishes) {
	case 0:
		return LayoutEmpty
	case 1:
		return LayoutSingle
	default:
		return LayoutList
	}
}

// FocusZoom favors the dish over its surroundings when framing by box.
const FocusZoom = 1.5

// Thumbnail framing. FocalX/FocalY are percentages of the source image and
// always fill (cover) the thumbnail frame.
type Thumbnail struct {
	DishID string  `json:"dishId"`
	Image  string  `json:"image"`
	FocalX float64 `json:"focalX"`
	FocalY float64 `json:"focalY"`
	Zoom   float64 `json:"zoom"`
}

// ObjectPosition renders the focal point the way CSS object-position wants it.
func (t Thumbnail) ObjectPosition() string {
	return fmt.Sprintf("%g%% %g%%", t.FocalX, t.FocalY)
}

// Focal converts a box midpoint from the 0-1000 scale to percent (x, y).
func Focal(b dish.BoundingBox) (x, y float64) {
	cx, cy := b.Center()
	return cx * 100 / dish.BoxScale, cy * 100 / dish.BoxScale
}

func ThumbnailFor(d dish.Dish) Thumbnail {
	t := Thumbnail{DishID: d.ID, Image: d.Image, FocalX: 50, FocalY: 50, Zoom: 1}
	// illustrative images have no spatial relation to the photo
	if d.IsMenu || d.BoundingBox == nil {
		return t
	}
	t.FocalX, t.FocalY = Focal(*d.BoundingBox)
	t.Zoom = FocusZoom
	return t
}

func Thumbnails(dishes []dish.Dish) []Thumbnail {
	out := make([]Thumbnail, 0, len(dishes))
	for _, d := range dishes {
		out = append(out, ThumbnailFor(d))
	}
	return out
}

// SpiceMeter renders the 0-3 intensity as filled/empty marks.
func SpiceMeter(l dish.SpiceLevel) string {
	n := l.Intensity()
	return strings.Repeat("🌶", n) + strings.Repeat("·", 3-n)
}

// AllergenLabel distinguishes "none detected" (empty) from a list.
func AllergenLabel(allergens []string) string {
	if len(allergens) == 0 {
		return "No allergens detected"
	}
	return strings.Join(allergens, ", ")
}

// View is the presentation payload handed to a client for one result set.
type View struct {
	Layout     Layout      `json:"layout"`
	Dishes     []dish.Dish `json:"dishes"`
	Thumbnails []Thumbnail `json:"thumbnails,omitempty"`
}

func Build(dishes []dish.Dish) View {
	v := View{Layout: SelectLayout(dishes), Dishes: dishes}
	if v.Dishes == nil {
		v.Dishes = []dish.Dish{}
	}
	if v.Layout == LayoutList {
		v.Thumbnails = Thumbnails(dishes)
	}
	return v
}
