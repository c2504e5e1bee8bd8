package openapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/labstack/echo/v4"
	"gopkg.in/yaml.v3"
)

// Document accumulates operations and component schemas for one API.
type Document struct {
	spec    *openapi3.T
	mu      sync.RWMutex
	schemas map[string]string
}

func New(title, version string) *Document {
	return &Document{
		spec: &openapi3.T{
			OpenAPI: "3.0.3",
			Info: &openapi3.Info{
				Title:   title,
				Version: version,
			},
			Paths:      openapi3.NewPaths(),
			Components: &openapi3.Components{},
		},
		schemas: make(map[string]string),
	}
}

func (d *Document) Description(desc string) *Document {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.spec.Info.Description = desc
	return d
}

func (d *Document) Server(url, description string) *Document {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.spec.Servers = append(d.spec.Servers, &openapi3.Server{
		URL:         url,
		Description: description,
	})
	return d
}

func (d *Document) Tag(name, description string) *Document {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.spec.Tags = append(d.spec.Tags, &openapi3.Tag{
		Name:        name,
		Description: description,
	})
	return d
}

// APIKeyAuth declares a named security scheme; location is "header",
// "query" or "cookie".
func (d *Document) APIKeyAuth(name, paramName, location, description string) *Document {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.spec.Components.SecuritySchemes == nil {
		d.spec.Components.SecuritySchemes = make(openapi3.SecuritySchemes)
	}
	d.spec.Components.SecuritySchemes[name] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type:        "apiKey",
			Name:        paramName,
			In:          location,
			Description: description,
		},
	}
	return d
}

func (d *Document) CookieAuth(name, cookieName, description string) *Document {
	return d.APIKeyAuth(name, cookieName, "cookie", description)
}

func (d *Document) HeaderAuth(name, headerName, description string) *Document {
	return d.APIKeyAuth(name, headerName, "header", description)
}

func (d *Document) Spec() *openapi3.T {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.spec
}

func (d *Document) Validate(ctx context.Context) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.spec.Validate(ctx)
}

func (d *Document) JSON() ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return json.MarshalIndent(d.spec, "", "  ")
}

func (d *Document) YAML() ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	intermediate, err := d.spec.MarshalYAML()
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(intermediate)
}

func (d *Document) JSONHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		data, err := d.JSON()
		if err != nil {
			return err
		}
		return c.JSONBlob(http.StatusOK, data)
	}
}

func (d *Document) YAMLHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		data, err := d.YAML()
		if err != nil {
			return err
		}
		return c.Blob(http.StatusOK, "application/yaml", data)
	}
}

// Operation starts documenting method on an Echo-style path.
func (d *Document) Operation(method, path string) *Operation {
	return &Operation{
		doc:    d,
		method: method,
		path:   path,
		op:     &openapi3.Operation{Responses: openapi3.NewResponsesWithCapacity(4)},
	}
}

func (d *Document) addOperation(method, path string, op *openapi3.Operation) {
	d.mu.Lock()
	defer d.mu.Unlock()

	openAPIPath := echoPathToOpenAPI(path)
	item := d.spec.Paths.Find(openAPIPath)
	if item == nil {
		item = &openapi3.PathItem{}
		d.spec.Paths.Set(openAPIPath, item)
	}
	item.SetOperation(strings.ToUpper(method), op)
}

func echoPathToOpenAPI(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if name, ok := strings.CutPrefix(part, ":"); ok {
			parts[i] = "{" + name + "}"
		}
	}
	return strings.Join(parts, "/")
}
