package openapi

import (
	"maps"
	"strconv"
)

// Components holds reusable schemas, responses, and security schemes.
type Components struct {
	Schemas         map[string]*Schema         `json:"schemas,omitempty"`
	Responses       map[string]*Response       `json:"responses,omitempty"`
	SecuritySchemes map[string]*SecurityScheme `json:"securitySchemes,omitempty"`
}

type SecurityScheme struct {
	Type         string `json:"type"`
	Scheme       string `json:"scheme"`
	BearerFormat string `json:"bearerFormat,omitempty"`
}

var errorResponses = map[string]string{
	"BadRequest":   "Invalid request",
	"Unauthorized": "Missing or invalid access token",
	"NotFound":     "Resource not found",
	"Conflict":     "Resource conflict",
	"Internal":     "Unexpected failure",
}

// NewComponents creates the shared error envelope, page, and security components.
func NewComponents() *Components {
	c := &Components{
		Schemas: map[string]*Schema{
			"Error": {
				Type:     "object",
				Required: []string{"statusCode", "message", "name", "timestamp", "path"},
				Properties: map[string]*Schema{
					"logId":      {Type: "string", Format: "uuid"},
					"statusCode": {Type: "integer"},
					"message":    {Type: "string"},
					"name":       {Type: "string"},
					"timestamp":  {Type: "string", Format: "date-time"},
					"path":       {Type: "string"},
					"errors":     {Description: "Field or record details"},
				},
			},
			"PageMeta": {
				Type: "object",
				Properties: map[string]*Schema{
					"total":         {Type: "integer"},
					"page":          {Type: "integer"},
					"page_size":     {Type: "integer"},
					"total_pages":   {Type: "integer"},
					"has_next_page": {Type: "boolean"},
				},
			},
		},
		Responses: make(map[string]*Response, len(errorResponses)),
		SecuritySchemes: map[string]*SecurityScheme{
			"bearer": {Type: "http", Scheme: "bearer", BearerFormat: "JWT"},
		},
	}
	for name, desc := range errorResponses {
		c.Responses[name] = &Response{
			Description: desc,
			Content:     jsonContent(SchemaRef("Error")),
		}
	}
	return c
}

// AddSchemas merges schemas into the component schemas.
func (c *Components) AddSchemas(schemas map[string]*Schema) {
	maps.Copy(c.Schemas, schemas)
}

// SchemaRef references a component schema.
func SchemaRef(name string) *Schema {
	return &Schema{Ref: "#/components/schemas/" + name}
}

// ResponseRef references a component response.
func ResponseRef(name string) *Response {
	return &Response{Ref: "#/components/responses/" + name}
}

// JSONBody is a required JSON request body of the named schema.
func JSONBody(schema string) *RequestBody {
	return &RequestBody{Required: true, Content: jsonContent(SchemaRef(schema))}
}

// MultipartBody is a required multipart form request body.
func MultipartBody(fields map[string]*Schema, required ...string) *RequestBody {
	return &RequestBody{
		Required: true,
		Content: map[string]*MediaType{
			"multipart/form-data": {Schema: &Schema{Type: "object", Properties: fields, Required: required}},
		},
	}
}

// Responses builds a response map with ok described by schema (empty for no body)
// and references to the named error responses.
func Responses(status int, schema string, errs ...string) map[string]*Response {
	out := make(map[string]*Response, len(errs)+1)
	ok := &Response{Description: "Success"}
	if schema != "" {
		ok.Content = jsonContent(SchemaRef(schema))
	}
	out[strconv.Itoa(status)] = ok
	for _, e := range errs {
		out[errorStatus(e)] = ResponseRef(e)
	}
	return out
}

// PathParam is a required string path parameter.
func PathParam(name, description string) *Parameter {
	return &Parameter{Name: name, In: "path", Required: true, Description: description, Schema: &Schema{Type: "string"}}
}

// QueryParam is an optional query parameter of type typ.
func QueryParam(name, typ, description string) *Parameter {
	return &Parameter{Name: name, In: "query", Description: description, Schema: &Schema{Type: typ}}
}

func jsonContent(s *Schema) map[string]*MediaType {
	return map[string]*MediaType{"application/json": {Schema: s}}
}

func errorStatus(name string) string {
	switch name {
	case "BadRequest":
		return "400"
	case "Unauthorized":
		return "401"
	case "NotFound":
		return "404"
	case "Conflict":
		return "409"
	default:
		return "500"
	}
}
