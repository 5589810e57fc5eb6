package dish

import (
	"fmt"
	"strings"
	"time"
)

type SpiceLevel string

const (
	SpiceNone   SpiceLevel = "None"
	SpiceMild   SpiceLevel = "Mild"
	SpiceMedium SpiceLevel = "Medium"
	SpiceHot    SpiceLevel = "Hot"
)

// ParseSpiceLevel accepts the enum case-insensitively.
func ParseSpiceLevel(s string) (SpiceLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return SpiceNone, nil
	case "mild":
		return SpiceMild, nil
	case "medium":
		return SpiceMedium, nil
	case "hot":
		return SpiceHot, nil
	}
	return "", fmt.Errorf("spice level %q not one of None|Mild|Medium|Hot", s)
}

// Intensity maps the level to the 0-3 count shown as chili icons.
func (s SpiceLevel) Intensity() int {
	switch s {
	case SpiceMild:
		return 1
	case SpiceMedium:
		return 2
	case SpiceHot:
		return 3
	default:
		return 0
	}
}

// BoxScale is the coordinate range of BoundingBox.
const BoxScale = 1000

// BoundingBox is [yMin, xMin, yMax, xMax] on a 0-1000 scale of the captured photo.
type BoundingBox [4]float64

func (b BoundingBox) YMin() float64 { return b[0] }
func (b BoundingBox) XMin() float64 { return b[1] }
func (b BoundingBox) YMax() float64 { return b[2] }
func (b BoundingBox) XMax() float64 { return b[3] }

// Center returns the midpoint (x, y) on the 0-1000 scale.
func (b BoundingBox) Center() (x, y float64) {
	return (b.XMin() + b.XMax()) / 2, (b.YMin() + b.YMax()) / 2
}

func (b BoundingBox) Validate() error {
	for i, v := range b {
		if v < 0 || v > BoxScale {
			return fmt.Errorf("coordinate %d = %v outside 0..%d", i, v, BoxScale)
		}
	}
	if b.YMin() > b.YMax() || b.XMin() > b.XMax() {
		return fmt.Errorf("inverted box %v", [4]float64(b))
	}
	return nil
}

// Dish is one identified food item. Dishes are values; nothing mutates them
// after normalization.
type Dish struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	OriginalName string       `json:"originalName"`
	EnglishName  string       `json:"englishName,omitempty"`
	Description  string       `json:"description"`
	Tags         []string     `json:"tags"`
	Allergens    []string     `json:"allergens"`
	SpiceLevel   SpiceLevel   `json:"spiceLevel"`
	Category     string       `json:"category"`
	Image        string       `json:"image"`
	BoundingBox  *BoundingBox `json:"boundingBox,omitempty"`
	IsMenu       bool         `json:"isMenu"`
}

// DisplayName prefers the translated name.
func (d Dish) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.OriginalName
}

// Clone returns a deep copy so snapshots never share slices or the box.
func (d Dish) Clone() Dish {
	c := d
	c.Tags = append([]string{}, d.Tags...)
	c.Allergens = append([]string{}, d.Allergens...)
	if d.BoundingBox != nil {
		b := *d.BoundingBox
		c.BoundingBox = &b
	}
	return c
}

// SavedItem is a value copy of a Dish taken at save time.
type SavedItem struct {
	Dish
	SavedAt time.Time `json:"savedAt"`
}
