package usecases

import (
	"fmt"
	"strconv"

	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/districtmap/internal/core/domain"
)

// relationsKey is the property Overpass exports use for relation memberships.
const relationsKey = "@relations"

// stringProp returns props[key] as a string. Numbers are formatted, anything
// else (including a missing key) yields "".
func stringProp(props geojson.Properties, key string) string {
	if props == nil {
		return ""
	}
	return asString(props[key])
}

func asString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case fmt.Stringer:
		return t.String()
	default:
		return ""
	}
}

// Relations decodes the "@relations" property. Entries that are not objects
// are skipped; missing tags come back empty.
func Relations(props geojson.Properties) []domain.Relation {
	if props == nil {
		return nil
	}
	raw, ok := props[relationsKey].([]interface{})
	if !ok || len(raw) == 0 {
		return nil
	}

	rels := make([]domain.Relation, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		rel := domain.Relation{Role: asString(m["role"])}
		if tags, ok := m["reltags"].(map[string]interface{}); ok {
			rel.RelTags = domain.RelTags{
				Route:    asString(tags["route"]),
				Ref:      asString(tags["ref"]),
				URL:      asString(tags["url"]),
				StopName: asString(tags["stop_name"]),
			}
		}
		rels = append(rels, rel)
	}
	return rels
}
