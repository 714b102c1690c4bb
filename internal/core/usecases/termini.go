package usecases

import (
	"html"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/districtmap/internal/core/domain"
)

// TerminusPlaceholder is shown when a terminus has no name.
const TerminusPlaceholder = "Pętla"

// DefaultTerminusColor is used for unknown category codes.
const DefaultTerminusColor = "gray"

// TerminusCategory is one planning-compliance class of terminus/loop facilities.
type TerminusCategory struct {
	Code    string `json:"code"`
	Meaning string `json:"meaning"`
	Color   string `json:"color"`
}

// TerminusCategories lists the known "kategoria" codes in legend order.
var TerminusCategories = []TerminusCategory{
	{Code: "a", Meaning: "Pętla istniejąca, zgodna z planem", Color: "green"},
	{Code: "b", Meaning: "Pętla istniejąca, niezgodna z planem", Color: "red"},
	{Code: "c", Meaning: "Pętla istniejąca, nieujęta w planie", Color: "orange"},
	{Code: "d", Meaning: "Pętla planowana, zgodna z planem", Color: "purple"},
}

func lookupCategory(code string) (TerminusCategory, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, c := range TerminusCategories {
		if c.Code == code {
			return c, true
		}
	}
	return TerminusCategory{}, false
}

// CategoryColor maps a category code to its marker colour.
func CategoryColor(code string) string {
	if c, ok := lookupCategory(code); ok {
		return c.Color
	}
	return DefaultTerminusColor
}

// CategoryMeaning maps a category code to its legend text, or "" when unknown.
func CategoryMeaning(code string) string {
	c, _ := lookupCategory(code)
	return c.Meaning
}

// TerminusPopup builds the popup HTML of a terminus facility.
func TerminusPopup(props geojson.Properties) string {
	name := stringProp(props, "name")
	if name == "" {
		name = TerminusPlaceholder
	}

	var b strings.Builder
	b.WriteString("<b>")
	b.WriteString(html.EscapeString(name))
	b.WriteString("</b>")
	if typ := stringProp(props, "type"); typ != "" {
		b.WriteString("<br/><i>")
		b.WriteString(html.EscapeString(typ))
		b.WriteString("</i>")
	}
	if desc := stringProp(props, "opis"); desc != "" {
		b.WriteString("<br/>")
		b.WriteString(html.EscapeString(desc))
	}
	if meaning := CategoryMeaning(stringProp(props, "kategoria")); meaning != "" {
		b.WriteString("<br/><b>Kategoria:</b> ")
		b.WriteString(html.EscapeString(meaning))
	}
	return b.String()
}

// TerminusInfoFor extracts the popup data of a terminus feature.
func TerminusInfoFor(feature *geojson.Feature) domain.TerminusInfo {
	code := strings.ToLower(strings.TrimSpace(stringProp(feature.Properties, "kategoria")))
	info := domain.TerminusInfo{
		Name:        stringProp(feature.Properties, "name"),
		Type:        stringProp(feature.Properties, "type"),
		Description: stringProp(feature.Properties, "opis"),
		Category:    code,
		Meaning:     CategoryMeaning(code),
		Color:       CategoryColor(code),
	}
	if info.Name == "" {
		info.Name = TerminusPlaceholder
	}
	if p, ok := feature.Geometry.(orb.Point); ok {
		info.Location = domain.PointFromOrb(p)
	}
	return info
}
