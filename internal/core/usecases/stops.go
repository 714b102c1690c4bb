package usecases

import (
	"fmt"
	"html"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/districtmap/internal/core/domain"
)

const (
	// StopPlaceholder is shown when a stop has no name anywhere.
	StopPlaceholder = "Przystanek"
	// NoRoutesPlaceholder is shown when a stop has no routes of the mode.
	NoRoutesPlaceholder = "brak"
)

var modeLabels = map[domain.TransportMode]string{
	domain.ModeBus:  "Autobusy",
	domain.ModeTram: "Tramwaje",
}

// StopName resolves a display name: the "name" property, else the first
// relation stop_name tag, else StopPlaceholder.
func StopName(props geojson.Properties) string {
	if name := stringProp(props, "name"); name != "" {
		return name
	}
	for _, rel := range Relations(props) {
		if rel.RelTags.StopName != "" {
			return rel.RelTags.StopName
		}
	}
	return StopPlaceholder
}

// RouteRefs returns the distinct route references of the given mode, as popup
// fragments: a link when the relation has a URL, the bare ref otherwise.
// Order of first appearance is kept.
func RouteRefs(props geojson.Properties, mode domain.TransportMode) []string {
	var (
		refs []string
		seen = make(map[string]struct{})
	)
	for _, rel := range Relations(props) {
		tags := rel.RelTags
		if tags.Route != string(mode) || tags.Ref == "" {
			continue
		}

		var ref string
		if tags.URL != "" {
			ref = fmt.Sprintf(`<a href="%s" target="_blank">%s</a>`,
				html.EscapeString(tags.URL), html.EscapeString(tags.Ref))
		} else {
			ref = html.EscapeString(tags.Ref)
		}

		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
	}
	return refs
}

// FormatRoutes joins route fragments for a popup, or returns
// NoRoutesPlaceholder for an empty set.
func FormatRoutes(refs []string) string {
	if len(refs) == 0 {
		return NoRoutesPlaceholder
	}
	return strings.Join(refs, ", ")
}

// StopPopup builds the popup HTML of a stop.
func StopPopup(props geojson.Properties, mode domain.TransportMode) string {
	return fmt.Sprintf("<b>%s</b><br/><b>%s:</b> %s",
		html.EscapeString(StopName(props)),
		modeLabels[mode],
		FormatRoutes(RouteRefs(props, mode)),
	)
}

// IsPlatform reports whether any relation membership marks the feature as a
// boarding platform ("platform", "platform_entry_only", "platform_exit_only").
func IsPlatform(props geojson.Properties) bool {
	for _, rel := range Relations(props) {
		if rel.Role == "platform" || strings.HasPrefix(rel.Role, "platform_") {
			return true
		}
	}
	return false
}

// StopInfoFor extracts the popup data of a stop feature.
func StopInfoFor(feature *geojson.Feature, mode domain.TransportMode) domain.StopInfo {
	info := domain.StopInfo{
		Name: StopName(feature.Properties),
		Mode: mode,
	}
	for _, rel := range Relations(feature.Properties) {
		if rel.RelTags.Route == string(mode) && rel.RelTags.Ref != "" && !containsString(info.Routes, rel.RelTags.Ref) {
			info.Routes = append(info.Routes, rel.RelTags.Ref)
		}
	}
	if p, ok := feature.Geometry.(orb.Point); ok {
		info.Location = domain.PointFromOrb(p)
	}
	return info
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
