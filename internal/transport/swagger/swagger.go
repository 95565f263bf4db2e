package swagger

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	httpSwagger "github.com/swaggo/http-swagger"
)

// DefaultSpecPath is relative to the working directory of the server.
const DefaultSpecPath = "./api/openapi.yml"

// Document is a validated OpenAPI file, kept verbatim for serving.
type Document struct {
	raw []byte
	doc *openapi3.T
}

// Load reads and validates the OpenAPI document at path. A broken document
// fails server start instead of surfacing in the Swagger UI.
func Load(ctx context.Context, path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read openapi document: %w", err)
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("parse openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}

	return &Document{raw: raw, doc: doc}, nil
}

func (d *Document) Title() string {
	return d.doc.Info.Title
}

// Operations lists "METHOD /path" for every documented operation, sorted.
func (d *Document) Operations() []string {
	var ops []string
	for path, item := range d.doc.Paths.Map() {
		for method := range item.Operations() {
			ops = append(ops, strings.ToUpper(method)+" "+path)
		}
	}
	sort.Strings(ops)
	return ops
}

// Documents reports whether method and path (relative to the server base)
// are described.
func (d *Document) Documents(method, path string) bool {
	item := d.doc.Paths.Value(path)
	if item == nil {
		return false
	}
	return item.GetOperation(strings.ToUpper(method)) != nil
}

func (d *Document) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(d.raw)
}

// Handler serves the Swagger UI for the document mounted at specURL.
func Handler(specURL string) http.Handler {
	return httpSwagger.Handler(
		httpSwagger.URL(specURL),
	)
}
