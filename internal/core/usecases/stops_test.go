package usecases_test

import (
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"

	"github.com/samirrijal/districtmap/internal/core/domain"
	"github.com/samirrijal/districtmap/internal/core/usecases"
)

func TestStopName(t *testing.T) {
	tests := []struct {
		name  string
		props geojson.Properties
		want  string
	}{
		{"explicit name", geojson.Properties{"name": "Ratuszowa"}, "Ratuszowa"},
		{
			"relation stop_name",
			geojson.Properties{"@relations": []interface{}{
				map[string]interface{}{"reltags": map[string]interface{}{"stop_name": "Górczewska"}},
			}},
			"Górczewska",
		},
		{"no name", geojson.Properties{}, usecases.StopPlaceholder},
		{"nil properties", nil, usecases.StopPlaceholder},
		{
			"name wins over relation",
			geojson.Properties{
				"name": "Powstańców Śląskich",
				"@relations": []interface{}{
					map[string]interface{}{"reltags": map[string]interface{}{"stop_name": "Other"}},
				},
			},
			"Powstańców Śląskich",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, usecases.StopName(tt.props))
		})
	}
}

func TestRouteRefs_DedupAndLinks(t *testing.T) {
	props := geojson.Properties{"@relations": relations(
		rel("platform", "bus", "105", "https://ztm.example/105"),
		rel("platform", "bus", "105", "https://ztm.example/105"),
		rel("platform", "bus", "171", ""),
		rel("platform", "bus", "171", ""),
		rel("platform", "tram", "10", ""),
	)}

	refs := usecases.RouteRefs(props, domain.ModeBus)
	assert.Equal(t, []string{
		`<a href="https://ztm.example/105" target="_blank">105</a>`,
		"171",
	}, refs)

	assert.Equal(t, []string{"10"}, usecases.RouteRefs(props, domain.ModeTram))
}

func TestRouteRefs_EscapesHTML(t *testing.T) {
	props := geojson.Properties{"@relations": relations(rel("platform", "bus", "<N>", ""))}
	assert.Equal(t, []string{"&lt;N&gt;"}, usecases.RouteRefs(props, domain.ModeBus))
}

func TestFormatRoutes(t *testing.T) {
	assert.Equal(t, "brak", usecases.FormatRoutes(nil))
	assert.Equal(t, "105, 171", usecases.FormatRoutes([]string{"105", "171"}))
}

func TestStopPopup(t *testing.T) {
	props := geojson.Properties{
		"name":       "Ratuszowa",
		"@relations": relations(rel("platform", "bus", "105", ""), rel("platform", "tram", "10", "")),
	}
	assert.Equal(t, "<b>Ratuszowa</b><br/><b>Autobusy:</b> 105", usecases.StopPopup(props, domain.ModeBus))
	assert.Equal(t, "<b>Ratuszowa</b><br/><b>Tramwaje:</b> 10", usecases.StopPopup(props, domain.ModeTram))

	empty := geojson.Properties{}
	assert.Equal(t, "<b>Przystanek</b><br/><b>Tramwaje:</b> brak", usecases.StopPopup(empty, domain.ModeTram))
}

func TestIsPlatform(t *testing.T) {
	assert.True(t, usecases.IsPlatform(geojson.Properties{"@relations": relations(rel("platform", "bus", "1", ""))}))
	assert.True(t, usecases.IsPlatform(geojson.Properties{"@relations": relations(rel("platform_entry_only", "bus", "1", ""))}))
	assert.False(t, usecases.IsPlatform(geojson.Properties{"@relations": relations(rel("stop", "bus", "1", ""))}))
	assert.False(t, usecases.IsPlatform(geojson.Properties{}))
}

func TestRelations_NumericRef(t *testing.T) {
	props := geojson.Properties{"@relations": []interface{}{
		map[string]interface{}{"role": "platform", "reltags": map[string]interface{}{"route": "bus", "ref": float64(105)}},
		"not an object",
	}}
	rels := usecases.Relations(props)
	if assert.Len(t, rels, 1) {
		assert.Equal(t, "105", rels[0].RelTags.Ref)
	}
}

func TestStopInfoFor(t *testing.T) {
	f := feature(inside, geojson.Properties{
		"name":       "Ratuszowa",
		"@relations": relations(rel("platform", "bus", "105", "https://ztm.example/105"), rel("platform", "bus", "105", "")),
	})
	info := usecases.StopInfoFor(f, domain.ModeBus)
	assert.Equal(t, "Ratuszowa", info.Name)
	assert.Equal(t, []string{"105"}, info.Routes)
	assert.Equal(t, domain.GeoPoint{Lat: 52.25, Lon: 20.92}, info.Location)
}
