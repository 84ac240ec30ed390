package gen

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"reflect"
	"slices"
	"strings"

	"github.com/mickamy/activerecord/internal/naming"
)

// FieldInfo holds parsed metadata for one column field.
type FieldInfo struct {
	Name       string // Go field name, e.g. "ID"
	Column     string // DB column name from `db:"id"` tag
	GoType     string // Go type as string, e.g. "int", "string", "time.Time"
	PrimaryKey bool   // true if tag contains "primaryKey"
	UUID       bool   // true if tag contains "uuid"
	SoftDelete bool   // deleted_at by convention, or "softDelete" tag option
	CreatedAt  bool   // created_at by convention, or "createdAt" tag option
	UpdatedAt  bool   // updated_at by convention, or "updatedAt" tag option
}

// RelationInfo holds parsed metadata for one `rel`-tagged field.
type RelationInfo struct {
	Field      string // Go field name, e.g. "Posts"
	Name       string // relation name, e.g. "posts"
	Kind       string // "has_one", "has_many" or "belongs_to"
	Target     string // related struct name without package, e.g. "Post"
	TargetType string // related type as written, e.g. "Post" or "amodel.Post"
	ForeignKey string // from "foreign_key:..." (optional)
	LocalKey   string // from "local_key:..." (optional)
	Slice      bool   // []T or []*T
	Pointer    bool   // *T or []*T
}

// External reports whether the related struct lives in another package.
func (r RelationInfo) External() bool { return r.Target != r.TargetType }

// StructInfo holds parsed metadata for one model struct.
type StructInfo struct {
	Name         string            // Go struct name, e.g. "User"
	Package      string            // Package name, e.g. "model"
	Fields       []FieldInfo       // Column fields
	Relations    []RelationInfo    // rel-tagged fields
	HasTableName bool              // struct declares a TableName method
	Imports      map[string]string // file imports, package name → path
}

// PrimaryKeyField returns the primary key field, or an error if none or
// multiple are defined.
func (s *StructInfo) PrimaryKeyField() (*FieldInfo, error) {
	var pk *FieldInfo
	for i := range s.Fields {
		if s.Fields[i].PrimaryKey {
			if pk != nil {
				return nil, fmt.Errorf("multiple primary keys: %s and %s", pk.Name, s.Fields[i].Name)
			}
			pk = &s.Fields[i]
		}
	}
	if pk == nil {
		return nil, fmt.Errorf("no primary key defined for %s", s.Name)
	}
	return pk, nil
}

// SoftDeleteField returns the soft-delete marker field, if any.
func (s *StructInfo) SoftDeleteField() (FieldInfo, bool) {
	for _, f := range s.Fields {
		if f.SoftDelete {
			return f, true
		}
	}
	return FieldInfo{}, false
}

// TimestampColumns returns the creation and modification time columns.
// ok is false unless the struct carries both.
func (s *StructInfo) TimestampColumns() (created, updated string, ok bool) {
	for _, f := range s.Fields {
		if f.CreatedAt && created == "" {
			created = f.Column
		}
		if f.UpdatedAt && updated == "" {
			updated = f.Column
		}
	}
	return created, updated, created != "" && updated != ""
}

// Parse reads the Go file at path and returns StructInfo for every struct
// with at least one column field. When types is non-empty only the named
// structs are returned, in the order given.
func Parse(filePath string, types ...string) ([]*StructInfo, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filePath, nil, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parse file: %w", err)
	}

	pkg := file.Name.Name
	var infos []*StructInfo
	tableNamers := make(map[string]bool)

	ast.Inspect(file, func(n ast.Node) bool {
		switch node := n.(type) {
		case *ast.FuncDecl:
			if recv := receiverName(node); recv != "" && node.Name.Name == "TableName" {
				tableNamers[recv] = true
			}
			return false
		case *ast.TypeSpec:
			st, ok := node.Type.(*ast.StructType)
			if !ok {
				return true
			}
			fields, relations, err2 := parseStructFields(st)
			if err2 != nil {
				err = fmt.Errorf("%s: %w", node.Name.Name, err2)
				return false
			}
			if len(fields) == 0 {
				return true
			}
			infos = append(infos, &StructInfo{
				Name:      node.Name.Name,
				Package:   pkg,
				Fields:    fields,
				Relations: relations,
			})
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	imports := fileImports(file)
	for _, info := range infos {
		info.HasTableName = tableNamers[info.Name]
		info.Imports = imports
	}

	if len(types) == 0 {
		return infos, nil
	}
	selected := make([]*StructInfo, 0, len(types))
	for _, name := range types {
		i := slices.IndexFunc(infos, func(s *StructInfo) bool { return s.Name == name })
		if i < 0 {
			return nil, fmt.Errorf("struct %s not found in %s", name, filePath)
		}
		selected = append(selected, infos[i])
	}
	return selected, nil
}

func fileImports(file *ast.File) map[string]string {
	imports := make(map[string]string, len(file.Imports))
	for _, imp := range file.Imports {
		path := strings.Trim(imp.Path.Value, `"`)
		name := path[strings.LastIndexByte(path, '/')+1:]
		if imp.Name != nil {
			name = imp.Name.Name
		}
		imports[name] = path
	}
	return imports
}

func receiverName(fn *ast.FuncDecl) string {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return ""
	}
	t := fn.Recv.List[0].Type
	if star, ok := t.(*ast.StarExpr); ok {
		t = star.X
	}
	if id, ok := t.(*ast.Ident); ok {
		return id.Name
	}
	return ""
}

// parseStructFields splits an AST struct type into column and relation fields.
func parseStructFields(st *ast.StructType) ([]FieldInfo, []RelationInfo, error) {
	fields := make([]FieldInfo, 0, len(st.Fields.List))
	var relations []RelationInfo
	for _, field := range st.Fields.List {
		if len(field.Names) == 0 || !field.Names[0].IsExported() {
			continue // embedded or unexported
		}
		tag := fieldTag(field)
		if relTag, ok := tag.Lookup("rel"); ok {
			rel, err := parseRelation(field.Names[0].Name, field.Type, relTag)
			if err != nil {
				return nil, nil, err
			}
			relations = append(relations, rel)
			continue
		}
		if fi, skip := parseField(field.Names[0].Name, field.Type, tag); !skip {
			fields = append(fields, fi)
		}
	}
	return fields, relations, nil
}

func fieldTag(field *ast.Field) reflect.StructTag {
	if field.Tag == nil {
		return ""
	}
	return reflect.StructTag(strings.Trim(field.Tag.Value, "`"))
}

func parseField(name string, typ ast.Expr, tag reflect.StructTag) (FieldInfo, bool) {
	// Defaults: column inferred from field name, ID field is primary key.
	fi := FieldInfo{
		Name:       name,
		Column:     naming.CamelToSnake(name),
		GoType:     typeToString(typ),
		PrimaryKey: name == "ID",
	}

	// Override with db tag if present.
	if dbTag, ok := tag.Lookup("db"); ok {
		if dbTag == "-" {
			return FieldInfo{}, true // explicitly skipped
		}
		parts := strings.Split(dbTag, ",")
		if parts[0] != "" {
			fi.Column = parts[0]
		}
		for _, opt := range parts[1:] {
			switch opt {
			case "primaryKey":
				fi.PrimaryKey = true
			case "uuid":
				fi.UUID = true
			case "softDelete":
				fi.SoftDelete = true
			case "createdAt":
				fi.CreatedAt = true
			case "updatedAt":
				fi.UpdatedAt = true
			}
		}
	}

	switch fi.Column {
	case "deleted_at":
		fi.SoftDelete = true
	case "created_at":
		fi.CreatedAt = true
	case "updated_at":
		fi.UpdatedAt = true
	}
	return fi, false
}

// parseRelation reads `rel:"kind,foreign_key:col,local_key:col"`.
func parseRelation(field string, typ ast.Expr, tag string) (RelationInfo, error) {
	parts := strings.Split(tag, ",")
	rel := RelationInfo{
		Field: field,
		Name:  naming.CamelToSnake(field),
		Kind:  strings.TrimSpace(parts[0]),
	}
	switch rel.Kind {
	case "has_one", "has_many", "belongs_to":
	default:
		return RelationInfo{}, fmt.Errorf("field %s: unknown relation kind %q", field, rel.Kind)
	}
	for _, opt := range parts[1:] {
		key, value, _ := strings.Cut(strings.TrimSpace(opt), ":")
		switch key {
		case "foreign_key":
			rel.ForeignKey = value
		case "local_key":
			rel.LocalKey = value
		case "name":
			rel.Name = value
		default:
			return RelationInfo{}, fmt.Errorf("field %s: unknown relation option %q", field, key)
		}
	}

	if arr, ok := typ.(*ast.ArrayType); ok && arr.Len == nil {
		rel.Slice = true
		typ = arr.Elt
	}
	if star, ok := typ.(*ast.StarExpr); ok {
		rel.Pointer = true
		typ = star.X
	}
	rel.TargetType = typeToString(typ)
	rel.Target = rel.TargetType
	if _, name, ok := strings.Cut(rel.TargetType, "."); ok {
		rel.Target = name
	}
	if rel.Kind == "has_many" && !rel.Slice {
		return RelationInfo{}, fmt.Errorf("field %s: has_many relation must be a slice", field)
	}
	if rel.Kind != "has_many" && rel.Slice {
		return RelationInfo{}, fmt.Errorf("field %s: %s relation must not be a slice", field, rel.Kind)
	}
	return rel, nil
}

func typeToString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.SelectorExpr:
		return typeToString(t.X) + "." + t.Sel.Name
	case *ast.StarExpr:
		return "*" + typeToString(t.X)
	case *ast.ArrayType:
		if t.Len == nil {
			return "[]" + typeToString(t.Elt)
		}
		return fmt.Sprintf("[%s]%s", typeToString(t.Len), typeToString(t.Elt))
	case *ast.BasicLit:
		return t.Value
	default:
		return fmt.Sprintf("%T", expr)
	}
}
