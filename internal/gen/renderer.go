package gen

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"maps"
	"slices"
	"strings"
	"text/template"

	"github.com/jinzhu/inflection"

	"github.com/mickamy/activerecord/internal/naming"
)

// RenderOption controls the output of RenderFile.
type RenderOption struct {
	// Inflect pins every table name with orm.Table, pluralised by English
	// inflection rules, instead of leaving it to the registry's naming.
	Inflect bool
}

// Render generates the Go source code for a single StructInfo.
// The returned bytes are formatted by gofmt.
func Render(info *StructInfo) ([]byte, error) {
	return RenderFile([]*StructInfo{info}, RenderOption{})
}

// RenderFile generates a single Go source file for all given StructInfos.
// The returned bytes are formatted by gofmt.
func RenderFile(infos []*StructInfo, opt RenderOption) ([]byte, error) {
	if len(infos) == 0 {
		return nil, errors.New("no structs to render")
	}

	local := make(map[string]bool, len(infos))
	for _, info := range infos {
		local[info.Name] = true
	}

	imports := make(map[string]bool)
	structs := make([]templateData, 0, len(infos))
	for _, info := range infos {
		data, err := buildTemplateData(info, opt, local)
		if err != nil {
			return nil, err
		}
		for _, q := range data.qualifiers {
			path, ok := info.Imports[q]
			if !ok {
				return nil, fmt.Errorf("%s: no import for package %q", info.Name, q)
			}
			imports[path] = true
		}
		structs = append(structs, data)
	}

	fileData := fileTemplateData{
		Package: infos[0].Package,
		Imports: slices.Sorted(maps.Keys(imports)),
		Structs: structs,
	}

	var buf bytes.Buffer
	if err := fileTmpl.Execute(&buf, fileData); err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("gofmt: %w", err)
	}
	return src, nil
}

type fileTemplateData struct {
	Package string
	Imports []string
	Structs []templateData
}

type templateData struct {
	Name       string
	PluralName string
	Options    []string
	Columns    []columnData
	Relations  []relationData
	Attributes []columnData
	qualifiers []string
}

type columnData struct {
	Field  string
	Column string
	Const  string
	Assign string // statement(s) filling v.Field from e
	Guard  string // condition under which the column is written; "" means always
}

type relationData struct {
	Assign string
}

func buildTemplateData(info *StructInfo, opt RenderOption, local map[string]bool) (templateData, error) {
	pk, err := info.PrimaryKeyField()
	if err != nil {
		return templateData{}, err
	}

	data := templateData{
		Name:       info.Name,
		PluralName: inflection.Plural(info.Name),
	}

	cols := make([]string, len(info.Fields))
	for i, f := range info.Fields {
		cols[i] = quote(f.Column)
	}
	data.Options = append(data.Options, "orm.Columns("+strings.Join(cols, ", ")+")")
	if pk.Column != "id" {
		data.Options = append(data.Options, "orm.PrimaryKey("+quote(pk.Column)+")")
	}
	if pk.UUID {
		data.Options = append(data.Options, "orm.UUIDKeys()")
	}
	if sd, ok := info.SoftDeleteField(); ok {
		if sd.Column == "deleted_at" {
			data.Options = append(data.Options, "orm.SoftDeletes()")
		} else {
			data.Options = append(data.Options, "orm.SoftDeleteColumn("+quote(sd.Column)+")")
		}
	}
	if created, updated, ok := info.TimestampColumns(); ok {
		if created == "created_at" && updated == "updated_at" {
			data.Options = append(data.Options, "orm.Timestamps()")
		} else {
			data.Options = append(data.Options, "orm.TimestampColumns("+quote(created)+", "+quote(updated)+")")
		}
	}
	switch {
	case info.HasTableName:
		data.Options = append(data.Options, "orm.TableFor["+info.Name+"]()")
	case opt.Inflect:
		table := naming.InflectPlural(naming.CamelToSnake(info.Name))
		data.Options = append(data.Options, "orm.Table("+quote(table)+")")
	}

	for _, r := range info.Relations {
		data.Options = append(data.Options, relationOption(r))
		if !r.External() && local[r.Target] {
			data.Relations = append(data.Relations, relationData{Assign: relationAssign(r)})
		}
	}

	for _, f := range info.Fields {
		assign, qualifier := fieldAssign(f)
		if qualifier != "" && !slices.Contains(data.qualifiers, qualifier) {
			data.qualifiers = append(data.qualifiers, qualifier)
		}
		c := columnData{
			Field:  f.Name,
			Column: f.Column,
			Const:  info.Name + "Column" + f.Name,
			Assign: assign,
			Guard:  writeGuard(f),
		}
		data.Columns = append(data.Columns, c)
		data.Attributes = append(data.Attributes, c)
	}
	return data, nil
}

func relationOption(r RelationInfo) string {
	fn := map[string]string{
		"has_one":    "orm.HasOne",
		"has_many":   "orm.HasMany",
		"belongs_to": "orm.BelongsTo",
	}[r.Kind]
	args := []string{quote(r.Name), quote(r.Target)}
	if r.ForeignKey != "" {
		args = append(args, "orm.ForeignKey("+quote(r.ForeignKey)+")")
	}
	if r.LocalKey != "" {
		args = append(args, "orm.LocalKey("+quote(r.LocalKey)+")")
	}
	return fn + "(" + strings.Join(args, ", ") + ")"
}

func relationAssign(r RelationInfo) string {
	conv := r.Target + "FromEntity"
	switch {
	case r.Slice && r.Pointer:
		return fmt.Sprintf("for _, r := range e.Related(%s) {\n\tx := %s(r)\n\tv.%s = append(v.%s, &x)\n}", quote(r.Name), conv, r.Field, r.Field)
	case r.Slice:
		return fmt.Sprintf("for _, r := range e.Related(%s) {\n\tv.%s = append(v.%s, %s(r))\n}", quote(r.Name), r.Field, r.Field, conv)
	case r.Pointer:
		return fmt.Sprintf("if r := e.RelatedOne(%s); r != nil {\n\tx := %s(r)\n\tv.%s = &x\n}", quote(r.Name), conv, r.Field)
	default:
		return fmt.Sprintf("if r := e.RelatedOne(%s); r != nil {\n\tv.%s = %s(r)\n}", quote(r.Name), r.Field, conv)
	}
}

// scalarGetter returns the Entity accessor expression yielding goType.
func scalarGetter(goType, column string) (string, bool) {
	col := quote(column)
	switch goType {
	case "string":
		return "e.String(" + col + ")", true
	case "bool":
		return "e.Bool(" + col + ")", true
	case "int64":
		return "e.Int64(" + col + ")", true
	case "int", "int8", "int16", "int32", "uint", "uint8", "uint16", "uint32", "uint64":
		return goType + "(e.Int64(" + col + "))", true
	case "float64":
		return "e.Float64(" + col + ")", true
	case "float32":
		return "float32(e.Float64(" + col + "))", true
	case "time.Time":
		return "e.Time(" + col + ")", true
	default:
		return "", false
	}
}

// fieldAssign renders the statements that fill one field from an entity,
// plus the package qualifier the statements reference, if any.
func fieldAssign(f FieldInfo) (string, string) {
	if get, ok := scalarGetter(f.GoType, f.Column); ok {
		return fmt.Sprintf("v.%s = %s", f.Name, get), ""
	}
	if base, isPtr := strings.CutPrefix(f.GoType, "*"); isPtr {
		if get, ok := scalarGetter(base, f.Column); ok {
			return fmt.Sprintf("if e.Value(%s) != nil {\n\tx := %s\n\tv.%s = &x\n}", quote(f.Column), get, f.Name), ""
		}
	}
	return fmt.Sprintf("if x, ok := e.Value(%s).(%s); ok {\n\tv.%s = x\n}", quote(f.Column), f.GoType, f.Name), qualifierOf(f.GoType)
}

func qualifierOf(goType string) string {
	t := strings.TrimLeft(goType, "*[]")
	if q, _, ok := strings.Cut(t, "."); ok {
		return q
	}
	return ""
}

// writeGuard returns the condition under which a field is written on
// insert. Zero keys, zero times and nil pointers are left to the
// database and the ORM.
func writeGuard(f FieldInfo) string {
	switch {
	case f.GoType == "time.Time":
		return "!v." + f.Name + ".IsZero()"
	case strings.HasPrefix(f.GoType, "*"):
		return "v." + f.Name + " != nil"
	case f.PrimaryKey && f.GoType == "string":
		return "v." + f.Name + ` != ""`
	case f.PrimaryKey && isIntType(f.GoType):
		return "v." + f.Name + " != 0"
	default:
		return ""
	}
}

func isIntType(goType string) bool {
	switch goType {
	case "int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32", "uint64":
		return true
	default:
		return false
	}
}

func quote(s string) string { return `"` + s + `"` }

var fileTmpl = template.Must(template.New("gen").Parse(fileTemplate))

const fileTemplate = `// Code generated by activerecord-gen; DO NOT EDIT.

package {{.Package}}

import (
	"github.com/mickamy/activerecord/orm"
	{{- range .Imports}}
	"{{.}}"
	{{- end}}
)

// Definitions declares every entity of this file, in declaration order.
var Definitions = []orm.Definition{
	{{- range .Structs}}
	{{.Name}}Definition,
	{{- end}}
}
{{range .Structs}}
// {{.Name}}Definition declares the {{.Name}} entity.
var {{.Name}}Definition = orm.Define("{{.Name}}",
	{{- range .Options}}
	{{.}},
	{{- end}}
)

// {{.Name}} column names.
const (
	{{- range .Columns}}
	{{.Const}} = "{{.Column}}"
	{{- end}}
)

// {{.Name}}FromEntity copies the attributes of e into a {{.Name}}.
// Eager loaded relations are converted as well.
func {{.Name}}FromEntity(e *orm.Entity) {{.Name}} {
	var v {{.Name}}
	{{- range .Columns}}
	{{.Assign}}
	{{- end}}
	{{- range .Relations}}
	{{.Assign}}
	{{- end}}
	return v
}

// {{.PluralName}}FromEntities converts a query result.
func {{.PluralName}}FromEntities(es orm.Entities) []{{.Name}} {
	out := make([]{{.Name}}, len(es))
	for i, e := range es {
		out[i] = {{.Name}}FromEntity(e)
	}
	return out
}

// {{.Name}}Attributes returns the column values of v keyed by column name,
// ready for Model.Create. Zero keys, zero times and nil pointers are left out.
func {{.Name}}Attributes(v *{{.Name}}) map[string]any {
	attrs := map[string]any{
		{{- range .Attributes}}
		{{- if not .Guard}}
		{{.Const}}: v.{{.Field}},
		{{- end}}
		{{- end}}
	}
	{{- range .Attributes}}
	{{- if .Guard}}
	if {{.Guard}} {
		attrs[{{.Const}}] = v.{{.Field}}
	}
	{{- end}}
	{{- end}}
	return attrs
}
{{end}}`
