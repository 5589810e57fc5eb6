package dish

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"menu-lens/api/internal/scanerr"
	"menu-lens/api/internal/util"
)

// rawResult mirrors the analysis schema with pointers where absence matters.
type rawResult struct {
	IsMenu *bool      `json:"isMenu"`
	Dishes *[]rawDish `json:"dishes"`
}

type rawDish struct {
	Name         string    `json:"name"`
	OriginalName string    `json:"originalName"`
	EnglishName  string    `json:"englishName"`
	Description  string    `json:"description"`
	Tags         []string  `json:"tags"`
	Allergens    []string  `json:"allergens"`
	SpiceLevel   *string   `json:"spiceLevel"`
	Category     string    `json:"category"`
	BoundingBox  []float64 `json:"boundingBox"`
}

// Normalizer turns raw analysis text into Dishes.
type Normalizer struct {
	IllustrationBase string
}

func NewNormalizer(illustrationBase string) *Normalizer {
	return &Normalizer{IllustrationBase: illustrationBase}
}

// Normalize parses raw and returns dishes in service order. scanStart seeds
// the ids; photoRef becomes the image of non-menu dishes. Any invalid dish
// rejects the whole batch.
func (n *Normalizer) Normalize(raw string, scanStart time.Time, photoRef string) ([]Dish, bool, error) {
	body := util.ExtractJSONObject(raw)
	if body == "" {
		return nil, false, &scanerr.AnalysisParseError{Index: -1, Err: errors.New("empty response")}
	}

	var rr rawResult
	if err := json.Unmarshal([]byte(body), &rr); err != nil {
		return nil, false, &scanerr.AnalysisParseError{Index: -1, Err: err}
	}
	if rr.IsMenu == nil {
		return nil, false, &scanerr.AnalysisParseError{Index: -1, Field: "isMenu", Err: errors.New("required")}
	}
	if rr.Dishes == nil {
		return nil, false, &scanerr.AnalysisParseError{Index: -1, Field: "dishes", Err: errors.New("required")}
	}
	isMenu := *rr.IsMenu
	prefix := strconv.FormatInt(scanStart.UnixMilli(), 10)

	out := make([]Dish, 0, len(*rr.Dishes))
	for i, rd := range *rr.Dishes {
		d, err := n.dish(rd, isMenu, photoRef)
		if err != nil {
			var pe *scanerr.AnalysisParseError
			if errors.As(err, &pe) {
				pe.Index = i
			}
			return nil, false, err
		}
		d.ID = prefix + "-" + strconv.Itoa(i)
		out = append(out, d)
	}
	return out, isMenu, nil
}

func (n *Normalizer) dish(rd rawDish, isMenu bool, photoRef string) (Dish, error) {
	name := strings.TrimSpace(rd.Name)
	orig := strings.TrimSpace(rd.OriginalName)
	if name == "" && orig == "" {
		return Dish{}, &scanerr.AnalysisParseError{Field: "name", Err: errors.New("name and originalName both empty")}
	}
	if rd.SpiceLevel == nil {
		return Dish{}, &scanerr.AnalysisParseError{Field: "spiceLevel", Err: errors.New("required")}
	}
	spice, err := ParseSpiceLevel(*rd.SpiceLevel)
	if err != nil {
		return Dish{}, &scanerr.AnalysisParseError{Field: "spiceLevel", Err: err}
	}
	box, err := parseBox(rd.BoundingBox)
	if err != nil {
		return Dish{}, &scanerr.AnalysisParseError{Field: "boundingBox", Err: err}
	}

	d := Dish{
		Name:         name,
		OriginalName: orig,
		EnglishName:  strings.TrimSpace(rd.EnglishName),
		Description:  strings.TrimSpace(rd.Description),
		Tags:         cleanList(rd.Tags),
		Allergens:    cleanList(rd.Allergens),
		SpiceLevel:   spice,
		Category:     strings.TrimSpace(rd.Category),
		BoundingBox:  box,
		IsMenu:       isMenu,
	}
	if isMenu {
		d.Image = IllustrationURL(n.IllustrationBase, firstNonEmpty(d.EnglishName, d.Name, d.OriginalName))
	} else {
		d.Image = photoRef
	}
	return d, nil
}

// parseBox accepts absent/null/empty as "no box" and otherwise needs exactly 4
// in-range values.
func parseBox(v []float64) (*BoundingBox, error) {
	if len(v) == 0 {
		return nil, nil
	}
	if len(v) != 4 {
		return nil, fmt.Errorf("want 4 numbers, got %d", len(v))
	}
	b := BoundingBox{v[0], v[1], v[2], v[3]}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
