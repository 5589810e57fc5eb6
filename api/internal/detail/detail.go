// Package detail holds the modal state for one selected dish.
package detail

import (
	"sync"

	"menu-lens/api/internal/dish"
)

type ImageMode string

const (
	Illustrative ImageMode = "illustrative"
	SourceScan   ImageMode = "source_scan"
)

// Spotlight is the highlighted region in percent of the source photo.
// Everything outside it is dimmed.
type Spotlight struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// SpotlightFor is shared by every scan type and mode that shows the source photo.
func SpotlightFor(b *dish.BoundingBox) *Spotlight {
	if b == nil {
		return nil
	}
	pct := func(v float64) float64 { return v * 100 / dish.BoxScale }
	return &Spotlight{
		Top:    pct(b.YMin()),
		Left:   pct(b.XMin()),
		Width:  pct(b.XMax() - b.XMin()),
		Height: pct(b.YMax() - b.YMin()),
	}
}

// DefaultMode: menus open on the illustration, photos on the photo itself.
func DefaultMode(d dish.Dish) ImageMode {
	if d.IsMenu {
		return Illustrative
	}
	return SourceScan
}

type View struct {
	Dish       dish.Dish  `json:"dish"`
	Mode       ImageMode  `json:"mode"`
	ShowToggle bool       `json:"showToggle"`
	Image      string     `json:"image"`
	Spotlight  *Spotlight `json:"spotlight,omitempty"`
}

// Controller is independent of the list state; it only knows the open dish.
type Controller struct {
	mu       sync.Mutex
	selected *dish.Dish
	mode     ImageMode
	photoRef string
}

func New() *Controller { return &Controller{} }

// Open selects d. photoRef is the captured photo, shown in SourceScan mode.
func (c *Controller) Open(d dish.Dish, photoRef string) View {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := d.Clone()
	c.selected = &cp
	c.mode = DefaultMode(d)
	c.photoRef = photoRef
	return c.viewLocked()
}

// Toggle flips the image mode. Only menu dishes have two images.
func (c *Controller) Toggle() (View, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil || !c.selected.IsMenu {
		if c.selected == nil {
			return View{}, false
		}
		return c.viewLocked(), false
	}
	if c.mode == Illustrative {
		c.mode = SourceScan
	} else {
		c.mode = Illustrative
	}
	return c.viewLocked(), true
}

func (c *Controller) Close() {
	c.mu.Lock()
	c.selected = nil
	c.photoRef = ""
	c.mu.Unlock()
}

func (c *Controller) Selected() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return "", false
	}
	return c.selected.ID, true
}

func (c *Controller) View() (View, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return View{}, false
	}
	return c.viewLocked(), true
}

func (c *Controller) viewLocked() View {
	d := *c.selected
	v := View{
		Dish:       d,
		Mode:       c.mode,
		ShowToggle: d.IsMenu,
	}
	switch c.mode {
	case Illustrative:
		v.Image = d.Image
	case SourceScan:
		v.Image = c.photoRef
		if v.Image == "" && !d.IsMenu {
			v.Image = d.Image
		}
		v.Spotlight = SpotlightFor(d.BoundingBox)
	}
	return v
}
