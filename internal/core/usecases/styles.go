package usecases

import "github.com/samirrijal/districtmap/internal/core/domain"

var modeColors = map[domain.TransportMode]string{
	domain.ModeTram: "blue",
	domain.ModeBus:  "green",
}

var boundaryStyle = domain.Style{Color: "gray", Weight: 1}

var lineStyles = map[domain.TransportMode]domain.Style{
	domain.ModeTram: {Color: modeColors[domain.ModeTram], Weight: 3},
	domain.ModeBus:  {Color: modeColors[domain.ModeBus], Weight: 3, DashArray: "5,5"},
}

// StopStyle is the circle marker of a stop of the given mode.
func StopStyle(mode domain.TransportMode) domain.Style {
	return domain.Style{
		CircleMarker: true,
		Radius:       6,
		FillColor:    modeColors[mode],
		Color:        "#fff",
		Weight:       1,
		Opacity:      1,
		FillOpacity:  0.9,
	}
}

// LineStyle is the path style of a line of the given mode.
func LineStyle(mode domain.TransportMode) domain.Style {
	return lineStyles[mode]
}

// TerminusStyle is the circle marker of a terminus in the given category.
func TerminusStyle(code string) domain.Style {
	return domain.Style{
		CircleMarker: true,
		Radius:       8,
		FillColor:    CategoryColor(code),
		Color:        "#000",
		Weight:       1,
		Opacity:      1,
		FillOpacity:  1,
	}
}
