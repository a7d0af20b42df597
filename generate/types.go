package generate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/stackforge/typesync/errors"
	"github.com/stackforge/typesync/schema"
)

const generatedHeader = "// AUTO-GENERATED by typesync - DO NOT EDIT\n"

// TypesGenerator emits TypeScript interface declarations for every schema
// under components.schemas. It runs in the first group because the client
// and hooks generators reference the generated type names.
type TypesGenerator struct{}

// NewTypesGenerator creates the built-in type-declaration generator.
func NewTypesGenerator() *TypesGenerator { return &TypesGenerator{} }

func (g *TypesGenerator) ID() string   { return "types" }
func (g *TypesGenerator) Group() Group { return GroupTypes }

func (g *TypesGenerator) Generate(ctx context.Context, doc schema.Document, opts Options) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var sb strings.Builder
	sb.WriteString(generatedHeader)
	sb.WriteString(fmt.Sprintf("// Source: %s\n\n", doc.Title()))

	names, schemas := componentSchemas(doc)
	for i, name := range names {
		sb.WriteString(renderInterface(name, schemas[name]))
		if i < len(names)-1 {
			sb.WriteString("\n\n")
		}
	}
	if len(names) == 0 {
		sb.WriteString("// No component schemas in source document\n")
	} else {
		sb.WriteString("\n")
	}

	return writeArtifact(opts.OutDir, "types.ts", sb.String())
}

// renderInterface renders one component schema as an exported interface, or
// a type alias when the schema is not an object.
func renderInterface(name string, raw interface{}) string {
	node, ok := raw.(map[string]interface{})
	if !ok {
		return fmt.Sprintf("export type %s = unknown;", name)
	}

	props, ok := node["properties"].(map[string]interface{})
	if !ok {
		return fmt.Sprintf("export type %s = %s;", name, tsType(raw))
	}

	required := requiredSet(node)

	propNames := make([]string, 0, len(props))
	for p := range props {
		propNames = append(propNames, p)
	}
	sort.Strings(propNames)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("export interface %s {\n", name))
	for _, p := range propNames {
		optional := ""
		if !required[p] {
			optional = "?"
		}
		sb.WriteString(fmt.Sprintf("  %s%s: %s;\n", p, optional, tsType(props[p])))
	}
	sb.WriteString("}")
	return sb.String()
}

// writeArtifact writes content under outDir and returns a Result carrying
// the path. Checksum and size are left for the orchestrator to fill in.
func writeArtifact(outDir, name, content string) (Result, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Result{}, errors.Wrapf(err, "failed to create output directory %s", outDir)
	}
	path := filepath.Join(outDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return Result{}, errors.Wrapf(err, "failed to write %s", path)
	}
	return Result{Path: path}, nil
}
