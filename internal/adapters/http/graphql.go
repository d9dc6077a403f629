package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/skyplanhq/skyplan/internal/core/domain"
)

// buildSchema creates the read-only GraphQL schema wired to our services.
// Mutations go through REST; GraphQL exists for clients composing plan,
// waypoint, and route data in one round trip.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	// LabeledWaypoint embeds its record, so the promoted fields need explicit
	// resolvers; the default resolver only sees immediate struct fields.
	resolveWaypoint := func(f func(domain.LabeledWaypoint) interface{}) graphql.FieldResolveFn {
		return func(p graphql.ResolveParams) (interface{}, error) {
			if lw, ok := p.Source.(domain.LabeledWaypoint); ok {
				return f(lw), nil
			}
			return nil, nil
		}
	}

	waypointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Waypoint",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type:    graphql.String,
				Resolve: resolveWaypoint(func(lw domain.LabeledWaypoint) interface{} { return lw.ID }),
			},
			"label": &graphql.Field{Type: graphql.Int},
			"name": &graphql.Field{
				Type:    graphql.String,
				Resolve: resolveWaypoint(func(lw domain.LabeledWaypoint) interface{} { return lw.Name }),
			},
			"location": &graphql.Field{
				Type:    geoPointType,
				Resolve: resolveWaypoint(func(lw domain.LabeledWaypoint) interface{} { return lw.Location }),
			},
		},
	})

	legType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Leg",
		Fields: graphql.Fields{
			"from_index":  &graphql.Field{Type: graphql.Int},
			"to_index":    &graphql.Field{Type: graphql.Int},
			"from_name":   &graphql.Field{Type: graphql.String},
			"to_name":     &graphql.Field{Type: graphql.String},
			"distance_nm": &graphql.Field{Type: graphql.Float},
			"heading_deg": &graphql.Field{Type: graphql.Int},
			"has_heading": &graphql.Field{Type: graphql.Boolean},
		},
	})

	routeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Route",
		Fields: graphql.Fields{
			"legs":              &graphql.Field{Type: graphql.NewList(legType)},
			"total_distance_nm": &graphql.Field{Type: graphql.Float},
		},
	})

	planType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Plan",
		Fields: graphql.Fields{
			"id":              &graphql.Field{Type: graphql.String},
			"title":           &graphql.Field{Type: graphql.String},
			"waypoints":       &graphql.Field{Type: graphql.NewList(waypointType)},
			"route":           &graphql.Field{Type: routeType},
			"cruise_speed_kt": &graphql.Field{Type: graphql.Float},
			"flight_time_hr":  &graphql.Field{Type: graphql.Float},
			"created_at":      &graphql.Field{Type: graphql.String},
			"updated_at":      &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"plans": &graphql.Field{
				Type:        graphql.NewList(planType),
				Description: "List all planning sessions",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Plans.List(p.Context), nil
				},
			},
			"plan": &graphql.Field{
				Type:        planType,
				Description: "Get a planning session by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.Plans.Get(p.Context, id)
				},
			},
			"route": &graphql.Field{
				Type:        routeType,
				Description: "Get the derived route of a planning session",
				Args: graphql.FieldConfigArgument{
					"plan_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					planID := p.Args["plan_id"].(string)
					return deps.Plans.Route(p.Context, planID)
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
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
