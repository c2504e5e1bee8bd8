package openapi

import (
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

type Operation struct {
	doc    *Document
	method string
	path   string
	op     *openapi3.Operation
}

func (o *Operation) Summary(summary string) *Operation {
	o.op.Summary = summary
	return o
}

func (o *Operation) Description(description string) *Operation {
	o.op.Description = description
	return o
}

func (o *Operation) ID(id string) *Operation {
	o.op.OperationID = id
	return o
}

func (o *Operation) Tags(tags ...string) *Operation {
	o.op.Tags = append(o.op.Tags, tags...)
	return o
}

func (o *Operation) QueryParam(name, description string, required bool) *Operation {
	o.op.Parameters = append(o.op.Parameters, &openapi3.ParameterRef{
		Value: &openapi3.Parameter{
			Name:        name,
			In:          openapi3.ParameterInQuery,
			Description: description,
			Required:    required,
			Schema:      openapi3.NewStringSchema().NewRef(),
		},
	})
	return o
}

func (o *Operation) Body(example any, description string) *Operation {
	o.op.RequestBody = &openapi3.RequestBodyRef{
		Value: openapi3.NewRequestBody().
			WithDescription(description).
			WithRequired(true).
			WithContent(openapi3.Content{
				"application/json": &openapi3.MediaType{Schema: o.doc.schemaFor(example)},
			}),
	}
	return o
}

func (o *Operation) Response(status int, example any, description string) *Operation {
	resp := openapi3.NewResponse().WithDescription(description)
	if example != nil {
		resp.Content = openapi3.Content{
			"application/json": &openapi3.MediaType{Schema: o.doc.schemaFor(example)},
		}
	}
	o.op.Responses.Set(strconv.Itoa(status), &openapi3.ResponseRef{Value: resp})
	return o
}

// Security adds one requirement that must be satisfied by all schemes.
func (o *Operation) Security(schemes ...string) *Operation {
	if o.op.Security == nil {
		o.op.Security = openapi3.NewSecurityRequirements()
	}
	req := openapi3.NewSecurityRequirement()
	for _, scheme := range schemes {
		req[scheme] = []string{}
	}
	o.op.Security.With(req)
	return o
}

// Build declares any ":name" path segments as required string parameters
// and adds the operation to the document.
func (o *Operation) Build() {
	for _, part := range strings.Split(o.path, "/") {
		name, ok := strings.CutPrefix(part, ":")
		if !ok || o.op.Parameters.GetByInAndName(openapi3.ParameterInPath, name) != nil {
			continue
		}
		o.op.Parameters = append(o.op.Parameters, &openapi3.ParameterRef{
			Value: openapi3.NewPathParameter(name).WithSchema(openapi3.NewStringSchema()),
		})
	}
	o.doc.addOperation(o.method, o.path, o.op)
}
