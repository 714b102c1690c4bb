package http

import (
	"bytes"

	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/districtmap/internal/core/domain"
	"github.com/samirrijal/districtmap/internal/pkg/mappage"
)

// PageHandler serves the Leaflet page that draws /v1/map.
func PageHandler(deps *Dependencies) fiber.Handler {
	opts := mappage.Options{DataURL: "/v1/map"}
	if deps.NATS != nil {
		opts.LivePath = "/ws"
	}

	var page bytes.Buffer
	if err := mappage.Render(&page, opts); err != nil {
		panic("map page template: " + err.Error())
	}
	body := page.Bytes()

	return func(c *fiber.Ctx) error {
		c.Set("Content-Type", "text/html; charset=utf-8")
		return c.Send(body)
	}
}

// MapHandler returns the full map document: view, tiles, ordered layers and legend.
func MapHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := deps.Map.Document(c.UserContext())
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(doc)
	}
}

// ViewHandler returns the initial viewport fitted to the district boundary.
func ViewHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		view, err := deps.Map.View(c.UserContext())
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(view)
	}
}

// LegendHandler returns the legend panel as an HTML fragment.
func LegendHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		legend, err := deps.Map.LegendHTML(c.UserContext())
		if err != nil {
			return errFromService(c, err)
		}
		c.Set("Content-Type", "text/html; charset=utf-8")
		return c.SendString(legend)
	}
}

// ListLayersHandler returns layer summaries in draw order.
func ListLayersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		layers, err := deps.Map.Layers(c.UserContext())
		if err != nil {
			return errFromService(c, err)
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 50)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 100 {
			limit = 50
		}

		total := len(layers)
		if offset >= total {
			layers = []domain.LayerSummary{}
		} else {
			end := offset + limit
			if end > total {
				end = total
			}
			layers = layers[offset:end]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: layers, Pagination: pg})
	}
}

// GetLayerHandler returns one layer. With ?format=geojson the layer is
// returned as a FeatureCollection whose features carry their popup HTML.
func GetLayerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "layer id is required")
		}

		layer, err := deps.Map.Layer(c.UserContext(), id)
		if err != nil {
			return errFromService(c, err)
		}

		switch c.Query("format") {
		case "":
			return c.JSON(layer)
		case "geojson":
			data, err := layerCollection(layer).MarshalJSON()
			if err != nil {
				return errInternal(c, err.Error())
			}
			c.Set("Content-Type", "application/geo+json")
			return c.Send(data)
		default:
			return errBadRequest(c, "format must be geojson or omitted")
		}
	}
}

func layerCollection(layer *domain.Layer) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, rf := range layer.Features {
		if rf.Feature == nil {
			continue
		}
		f := geojson.NewFeature(rf.Feature.Geometry)
		f.ID = rf.Feature.ID
		f.Properties = rf.Feature.Properties.Clone()
		if f.Properties == nil {
			f.Properties = geojson.Properties{}
		}
		if rf.Popup != "" {
			f.Properties["popup"] = rf.Popup
		}
		fc.Append(f)
	}
	return fc
}

// StopsHandler returns the popup data of the rendered stops, optionally
// restricted to one mode.
func StopsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		mode := domain.TransportMode(c.Query("mode"))
		switch mode {
		case "", domain.ModeBus, domain.ModeTram:
		default:
			return errBadRequest(c, "mode must be bus or tram")
		}

		stops, err := deps.Map.Stops(c.UserContext(), mode)
		if err != nil {
			return errFromService(c, err)
		}
		if stops == nil {
			stops = []domain.StopInfo{}
		}
		return c.JSON(stops)
	}
}

// TerminiHandler returns the popup data of the rendered terminus facilities.
func TerminiHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		termini, err := deps.Map.Termini(c.UserContext())
		if err != nil {
			return errFromService(c, err)
		}
		if termini == nil {
			termini = []domain.TerminusInfo{}
		}
		return c.JSON(termini)
	}
}

// RefreshTerminiHandler rebuilds the terminus layer of the live map and
// returns its new summary.
func RefreshTerminiHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := deps.Map.RefreshTermini(c.UserContext())
		if err != nil {
			return errFromService(c, err)
		}

		layer := doc.Layer(domain.LayerTermini)
		if layer == nil {
			return errInternal(c, "termini layer missing after refresh")
		}
		LoggerFromCtx(c.UserContext()).Info("termini refreshed", "features", len(layer.Features))
		return c.JSON(layer.Summary())
	}
}

// ListDatasetsHandler returns the datasets stored in PostgreSQL.
func ListDatasetsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Datasets == nil {
			return errUnavailable(c, "dataset store not configured")
		}
		datasets, err := deps.Datasets.List(c.UserContext())
		if err != nil {
			return errFromService(c, err)
		}
		if datasets == nil {
			datasets = []domain.Dataset{}
		}
		return c.JSON(datasets)
	}
}

// GetDatasetHandler returns the metadata of one stored dataset, or the
// dataset itself with ?format=geojson.
func GetDatasetHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Datasets == nil {
			return errUnavailable(c, "dataset store not configured")
		}
		ds, err := deps.Datasets.Get(c.UserContext(), c.Params("name"))
		if err != nil {
			return errFromService(c, err)
		}
		if c.Query("format") != "geojson" || ds.Data == nil {
			return c.JSON(ds)
		}

		data, err := ds.Data.MarshalJSON()
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set("Content-Type", "application/geo+json")
		return c.Send(data)
	}
}
