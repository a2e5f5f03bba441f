// Package registrystub serves a minimal GraphQL registry that answers the
// customer-mints query from in-memory fixtures. It backs the registry client
// tests and the local registry-stub command.
package registrystub

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/handler"
)

// Mint is a fixture token.
type Mint struct {
	ID           string `json:"id"`
	CollectionID string `json:"collectionId"`
}

// Customer holds the fixture mints of one customer. A nil Mints slice is
// served as a null list.
type Customer struct {
	Mints []Mint `json:"mints"`
}

// Project maps customer ids to their holdings.
type Project struct {
	Customers map[string]*Customer `json:"customers"`
}

// Fixtures is the full registry state keyed by project id.
type Fixtures struct {
	APIKey   string              `json:"api_key"`
	Projects map[string]*Project `json:"projects"`
}

// LoadFixtures reads fixtures from a JSON file.
func LoadFixtures(path string) (*Fixtures, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}
	var f Fixtures
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	return &f, nil
}

// uuidScalar accepts only canonical UUID strings, as the real registry does.
var uuidScalar = graphql.NewScalar(graphql.ScalarConfig{
	Name: "UUID",
	Serialize: func(value interface{}) interface{} {
		return value
	},
	ParseValue: func(value interface{}) interface{} {
		s, ok := value.(string)
		if !ok {
			return nil
		}
		if _, err := uuid.Parse(s); err != nil {
			return nil
		}
		return s
	},
	ParseLiteral: func(valueAST ast.Value) interface{} {
		sv, ok := valueAST.(*ast.StringValue)
		if !ok {
			return nil
		}
		if _, err := uuid.Parse(sv.Value); err != nil {
			return nil
		}
		return sv.Value
	},
})

// NewSchema builds the registry schema over the fixtures.
func NewSchema(f *Fixtures) (graphql.Schema, error) {
	mintType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CollectionMint",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(Mint).ID, nil
				},
			},
			"collectionId": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if id := p.Source.(Mint).CollectionID; id != "" {
						return id, nil
					}
					return nil, nil
				},
			},
		},
	})

	customerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Customer",
		Fields: graphql.Fields{
			"mints": &graphql.Field{
				Type: graphql.NewList(graphql.NewNonNull(mintType)),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					c := p.Source.(*Customer)
					if c.Mints == nil {
						return nil, nil
					}
					return c.Mints, nil
				},
			},
		},
	})

	projectType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Project",
		Fields: graphql.Fields{
			"customer": &graphql.Field{
				Type: customerType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(uuidScalar)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(string)
					if id == "" {
						return nil, errors.New("invalid customer id")
					}
					c, ok := p.Source.(*Project).Customers[id]
					if !ok || c == nil {
						return nil, nil
					}
					return c, nil
				},
			},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"project": &graphql.Field{
				Type: projectType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(uuidScalar)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(string)
					if id == "" {
						return nil, errors.New("invalid project id")
					}
					proj, ok := f.Projects[id]
					if !ok || proj == nil {
						return nil, nil
					}
					return proj, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: queryType})
}

// NewHandler returns an HTTP handler serving the schema. Requests whose
// Authorization header does not equal f.APIKey are rejected with 401 when
// an API key is configured.
func NewHandler(f *Fixtures) (http.Handler, error) {
	if f.Projects == nil {
		f.Projects = map[string]*Project{}
	}
	schema, err := NewSchema(f)
	if err != nil {
		return nil, fmt.Errorf("failed to build schema: %w", err)
	}
	h := handler.New(&handler.Config{
		Schema:   &schema,
		Pretty:   false,
		GraphiQL: false,
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if f.APIKey != "" && r.Header.Get("Authorization") != f.APIKey {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"unauthorized"}`))
			return
		}
		h.ServeHTTP(w, r)
	}), nil
}
