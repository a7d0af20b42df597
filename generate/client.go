package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/stackforge/typesync/schema"
)

// ClientGenerator emits a typed fetch client with one function per
// operation in the source document.
type ClientGenerator struct{}

// NewClientGenerator creates the built-in API client generator.
func NewClientGenerator() *ClientGenerator { return &ClientGenerator{} }

func (g *ClientGenerator) ID() string   { return "client" }
func (g *ClientGenerator) Group() Group { return GroupClient }

func (g *ClientGenerator) Generate(ctx context.Context, doc schema.Document, opts Options) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	baseURL := opts.APIBaseURL
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}

	var sb strings.Builder
	sb.WriteString(generatedHeader)
	sb.WriteString(fmt.Sprintf("// Source: %s\n\n", doc.Title()))
	sb.WriteString(fmt.Sprintf("const BASE_URL = process.env.NEXT_PUBLIC_API_URL ?? '%s';\n\n", baseURL))
	sb.WriteString(`async function request<T>(path: string, init?: RequestInit): Promise<T> {
  const res = await fetch(BASE_URL + path, {
    headers: { 'Content-Type': 'application/json' },
    ...init,
  });
  if (!res.ok) {
    throw new Error(` + "`API error ${res.status}: ${res.statusText}`" + `);
  }
  return res.json() as Promise<T>;
}
`)

	for _, op := range listOperations(doc) {
		sb.WriteString("\n")
		sb.WriteString(renderClientFunction(op))
	}

	return writeArtifact(opts.OutDir, "client.ts", sb.String())
}

// renderClientFunction renders one exported async function per operation.
func renderClientFunction(op operation) string {
	var params []string
	for _, p := range op.PathParams {
		params = append(params, p+": string")
	}
	if op.HasBody {
		params = append(params, "body: unknown")
	}

	// Path template: "/users/{id}" -> `/users/${id}`
	tsPath := "`" + strings.ReplaceAll(strings.ReplaceAll(op.Path, "{", "${"), "`", "") + "`"

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("export async function %s(%s): Promise<unknown> {\n",
		op.OperationID, strings.Join(params, ", ")))
	if op.Method == "GET" {
		sb.WriteString(fmt.Sprintf("  return request(%s);\n", tsPath))
	} else {
		init := fmt.Sprintf("{ method: '%s'", op.Method)
		if op.HasBody {
			init += ", body: JSON.stringify(body)"
		}
		init += " }"
		sb.WriteString(fmt.Sprintf("  return request(%s, %s);\n", tsPath, init))
	}
	sb.WriteString("}\n")
	return sb.String()
}
