package openapi

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
)

var timeType = reflect.TypeOf(time.Time{})

func (d *Document) schemaFor(example any) *openapi3.SchemaRef {
	d.mu.Lock()
	defer d.mu.Unlock()

	if example == nil {
		return openapi3.NewObjectSchema().NewRef()
	}
	return d.schemaFromType(reflect.TypeOf(example))
}

func (d *Document) schemaFromType(t reflect.Type) *openapi3.SchemaRef {
	if t.Kind() == reflect.Pointer {
		ref := d.schemaFromType(t.Elem())
		if ref.Ref != "" {
			return &openapi3.SchemaRef{Value: &openapi3.Schema{
				AllOf:    openapi3.SchemaRefs{ref},
				Nullable: true,
			}}
		}
		ref.Value.Nullable = true
		return ref
	}

	switch t.Kind() {
	case reflect.String:
		return openapi3.NewStringSchema().NewRef()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return openapi3.NewIntegerSchema().NewRef()
	case reflect.Float32, reflect.Float64:
		return openapi3.NewFloat64Schema().NewRef()
	case reflect.Bool:
		return openapi3.NewBoolSchema().NewRef()
	case reflect.Slice, reflect.Array:
		return openapi3.NewArraySchema().WithItems(d.schemaFromType(t.Elem()).Value).NewRef()
	case reflect.Map:
		return openapi3.NewObjectSchema().WithAdditionalProperties(d.schemaFromType(t.Elem()).Value).NewRef()
	case reflect.Struct:
		if t == timeType {
			return openapi3.NewDateTimeSchema().NewRef()
		}
		return d.componentRef(t)
	default:
		return openapi3.NewObjectSchema().NewRef()
	}
}

// componentRef registers named structs under components/schemas once and
// returns a reference carrying the resolved value.
func (d *Document) componentRef(t reflect.Type) *openapi3.SchemaRef {
	if t.Name() == "" {
		return d.structSchema(t).NewRef()
	}

	key := t.PkgPath() + "." + t.Name()
	if d.spec.Components.Schemas == nil {
		d.spec.Components.Schemas = make(openapi3.Schemas)
	}

	if name, ok := d.schemas[key]; ok {
		return &openapi3.SchemaRef{Ref: "#/components/schemas/" + name, Value: d.spec.Components.Schemas[name].Value}
	}

	name := t.Name()
	for i := 2; ; i++ {
		if _, taken := d.spec.Components.Schemas[name]; !taken {
			break
		}
		name = t.Name() + strconv.Itoa(i)
	}
	d.schemas[key] = name

	schema := openapi3.NewObjectSchema()
	d.spec.Components.Schemas[name] = schema.NewRef()
	*schema = *d.structSchema(t)

	return &openapi3.SchemaRef{Ref: "#/components/schemas/" + name, Value: schema}
}

func (d *Document) structSchema(t reflect.Type) *openapi3.Schema {
	schema := openapi3.NewObjectSchema()
	schema.Properties = make(openapi3.Schemas)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}
		parts := strings.Split(jsonTag, ",")
		name := field.Name
		if parts[0] != "" {
			name = parts[0]
		}
		omitEmpty := false
		for _, opt := range parts[1:] {
			if opt == "omitempty" {
				omitEmpty = true
			}
		}

		ref := d.schemaFromType(field.Type)
		required := applyValidateTag(ref, field.Tag.Get("validate"))
		schema.Properties[name] = ref

		if required || (!omitEmpty && field.Tag.Get("validate") == "") {
			schema.Required = append(schema.Required, name)
		}
	}

	return schema
}

// applyValidateTag copies the constraints validator enforces onto the
// schema and reports whether the field is required.
func applyValidateTag(ref *openapi3.SchemaRef, tag string) bool {
	if tag == "" || ref.Ref != "" || ref.Value == nil {
		return false
	}

	required := false
	for _, rule := range strings.Split(tag, ",") {
		name, arg, _ := strings.Cut(rule, "=")
		switch name {
		case "required":
			required = true
		case "email":
			ref.Value.Format = "email"
		case "uuid":
			ref.Value.Format = "uuid"
		case "min":
			if n, err := strconv.ParseUint(arg, 10, 64); err == nil {
				ref.Value.MinLength = n
			}
		case "max":
			if n, err := strconv.ParseUint(arg, 10, 64); err == nil {
				ref.Value.MaxLength = &n
			}
		}
	}
	return required
}
