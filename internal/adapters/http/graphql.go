package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/districtmap/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to the map and dataset services.
// Object fields resolve through the JSON tags of the domain types.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Bounds",
		Fields: graphql.Fields{
			"min_lat": &graphql.Field{Type: graphql.Float},
			"min_lon": &graphql.Field{Type: graphql.Float},
			"max_lat": &graphql.Field{Type: graphql.Float},
			"max_lon": &graphql.Field{Type: graphql.Float},
		},
	})

	viewType := graphql.NewObject(graphql.ObjectConfig{
		Name: "View",
		Fields: graphql.Fields{
			"center": &graphql.Field{Type: geoPointType},
			"zoom":   &graphql.Field{Type: graphql.Int},
			"bounds": &graphql.Field{Type: boundsType},
		},
	})

	layerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Layer",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"kind":          &graphql.Field{Type: graphql.String},
			"title":         &graphql.Field{Type: graphql.String},
			"z":             &graphql.Field{Type: graphql.Int},
			"feature_count": &graphql.Field{Type: graphql.Int},
			"built_at":      &graphql.Field{Type: graphql.DateTime},
		},
	})

	stopType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Stop",
		Fields: graphql.Fields{
			"name":     &graphql.Field{Type: graphql.String},
			"mode":     &graphql.Field{Type: graphql.String},
			"routes":   &graphql.Field{Type: graphql.NewList(graphql.String)},
			"location": &graphql.Field{Type: geoPointType},
		},
	})

	terminusType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Terminus",
		Fields: graphql.Fields{
			"name":        &graphql.Field{Type: graphql.String},
			"type":        &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"category":    &graphql.Field{Type: graphql.String},
			"meaning":     &graphql.Field{Type: graphql.String},
			"color":       &graphql.Field{Type: graphql.String},
			"location":    &graphql.Field{Type: geoPointType},
		},
	})

	legendEntryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "LegendEntry",
		Fields: graphql.Fields{
			"label":    &graphql.Field{Type: graphql.String},
			"color":    &graphql.Field{Type: graphql.String},
			"symbol":   &graphql.Field{Type: graphql.String},
			"category": &graphql.Field{Type: graphql.String},
		},
	})

	datasetType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Dataset",
		Fields: graphql.Fields{
			"name":       &graphql.Field{Type: graphql.String},
			"source":     &graphql.Field{Type: graphql.String},
			"features":   &graphql.Field{Type: graphql.Int},
			"updated_at": &graphql.Field{Type: graphql.DateTime},
		},
	})

	modeEnum := graphql.NewEnum(graphql.EnumConfig{
		Name: "Mode",
		Values: graphql.EnumValueConfigMap{
			"bus":  &graphql.EnumValueConfig{Value: string(domain.ModeBus)},
			"tram": &graphql.EnumValueConfig{Value: string(domain.ModeTram)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"view": &graphql.Field{
				Type:        viewType,
				Description: "Initial viewport fitted to the district boundary",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Map.View(p.Context)
				},
			},
			"layers": &graphql.Field{
				Type:        graphql.NewList(layerType),
				Description: "Layers in draw order, bottom first",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Map.Layers(p.Context)
				},
			},
			"layer": &graphql.Field{
				Type:        layerType,
				Description: "Get a layer by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					l, err := deps.Map.Layer(p.Context, p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					return l.Summary(), nil
				},
			},
			"stops": &graphql.Field{
				Type:        graphql.NewList(stopType),
				Description: "Stops inside the district with the routes serving them",
				Args: graphql.FieldConfigArgument{
					"mode": &graphql.ArgumentConfig{Type: modeEnum},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					mode, _ := p.Args["mode"].(string)
					return deps.Map.Stops(p.Context, domain.TransportMode(mode))
				},
			},
			"termini": &graphql.Field{
				Type:        graphql.NewList(terminusType),
				Description: "Terminus facilities inside the district",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Map.Termini(p.Context)
				},
			},
			"legend": &graphql.Field{
				Type: graphql.NewList(legendEntryType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					doc, err := deps.Map.Document(p.Context)
					if err != nil {
						return nil, err
					}
					return doc.Legend, nil
				},
			},
			"legendHtml": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Map.LegendHTML(p.Context)
				},
			},
			"datasets": &graphql.Field{
				Type:        graphql.NewList(datasetType),
				Description: "Datasets stored in PostgreSQL",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.Datasets == nil {
						return []domain.Dataset{}, nil
					}
					return deps.Datasets.List(p.Context)
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"refreshTermini": &graphql.Field{
				Type:        layerType,
				Description: "Rebuild the terminus layer on top of the live map",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					doc, err := deps.Map.RefreshTermini(p.Context)
					if err != nil {
						return nil, err
					}
					l := doc.Layer(domain.LayerTermini)
					if l == nil {
						return nil, nil
					}
					return l.Summary(), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Query == "" {
			return errBadRequest(c, "query is required")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
