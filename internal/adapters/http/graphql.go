package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/dropspots/internal/core/domain"
	"github.com/samirrijal/dropspots/internal/core/usecases"
	"github.com/samirrijal/dropspots/internal/pkg/units"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	spotType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Spot",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"location":    &graphql.Field{Type: geoPointType},
			"height_feet": &graphql.Field{Type: graphql.Float},
			"height_display": &graphql.Field{
				Type:        graphql.String,
				Description: `Height for display, "?" when unknown`,
				Args: graphql.FieldConfigArgument{
					"units": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: "feet"},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					spot := p.Source.(domain.Spot)
					u, err := units.ParseUnit(p.Args["units"].(string))
					if err != nil {
						return nil, err
					}
					return units.DisplayHeight(&spot.HeightFeet, u.Metric()), nil
				},
			},
			"status":   &graphql.Field{Type: graphql.String},
			"distance": &graphql.Field{Type: graphql.Float},
			"created_at": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(domain.Spot).CreatedAt.UTC().Format(time.RFC3339), nil
				},
			},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"spotsNearby": &graphql.Field{
				Type:        graphql.NewList(spotType),
				Description: "Approved spots near a location, nearest first",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: defaultNearbyRadius},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					point := domain.GeoPoint{Lat: p.Args["lat"].(float64), Lon: p.Args["lon"].(float64)}
					return deps.Spots.Nearby(p.Context, point, p.Args["radius"].(float64), p.Args["limit"].(int))
				},
			},
			"spot": &graphql.Field{
				Type:        spotType,
				Description: "Get a spot by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					spot, err := deps.Spots.Get(p.Context, p.Args["id"].(string))
					if usecases.IsNotFound(err) {
						return nil, nil
					}
					if err != nil {
						return nil, err
					}
					return *spot, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
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
