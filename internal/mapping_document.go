package internal

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/lychee-technology/legacybridge"
	"gopkg.in/yaml.v3"
)

// CurrentMappingVersion is the newest mapping document version understood.
const CurrentMappingVersion = 1

// mappingDocumentSchema constrains the shape of a mapping document. Order of
// keys is not expressible here and is taken from the YAML node tree instead.
const mappingDocumentSchema = `{
  "type": "object",
  "required": ["version"],
  "additionalProperties": false,
  "properties": {
    "version": {"type": "integer", "minimum": 1},
    "tables": {
      "type": ["object", "null"],
      "additionalProperties": {"type": "string", "minLength": 1}
    },
    "fields": {
      "type": ["object", "null"],
      "additionalProperties": {
        "type": ["object", "null"],
        "additionalProperties": {"type": "string", "minLength": 1}
      }
    }
  }
}`

// MappingDocument is the parsed form of a mapping file: table mappings in the
// order they first appear in the document.
type MappingDocument struct {
	Version  int                         `json:"version"`
	Mappings []legacybridge.TableMapping `json:"mappings"`
}

// Tables returns the application table names in document order.
func (d *MappingDocument) Tables() []string {
	names := make([]string, 0, len(d.Mappings))
	for _, m := range d.Mappings {
		names = append(names, m.Table.Application)
	}
	return names
}

// ParseMappingDocument parses YAML or JSON mapping text. Field order within a
// table is preserved because it decides the rewrite order.
func ParseMappingDocument(data []byte) (*MappingDocument, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, legacybridge.NewMappingInvalidError("mapping document is not valid YAML or JSON").WithCause(err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, legacybridge.NewMappingInvalidError("mapping document is empty")
	}

	var generic any
	if err := root.Decode(&generic); err != nil {
		return nil, legacybridge.NewMappingInvalidError("mapping document could not be decoded").WithCause(err)
	}
	if err := ValidateMappingDocument(generic); err != nil {
		return nil, err
	}

	body := root.Content[0]
	doc := &MappingDocument{}
	index := make(map[string]int)

	pairs, err := mappingPairs(body, "document")
	if err != nil {
		return nil, err
	}
	for _, pair := range pairs {
		switch pair.key {
		case "version":
			if err := pair.value.Decode(&doc.Version); err != nil {
				return nil, legacybridge.NewMappingInvalidError("version must be an integer").WithCause(err)
			}
		case "tables":
			tables, err := mappingPairs(pair.value, "tables")
			if err != nil {
				return nil, err
			}
			for _, table := range tables {
				entry := tableEntry(doc, index, table.key)
				entry.Table.Legacy = scalarValue(table.value)
			}
		case "fields":
			tables, err := mappingPairs(pair.value, "fields")
			if err != nil {
				return nil, err
			}
			for _, table := range tables {
				fields, err := mappingPairs(table.value, "fields."+table.key)
				if err != nil {
					return nil, err
				}
				entry := tableEntry(doc, index, table.key)
				for _, field := range fields {
					entry.Fields = append(entry.Fields, legacybridge.FieldAlias{
						Application: field.key,
						Legacy:      scalarValue(field.value),
					})
				}
			}
		}
	}

	if doc.Version > CurrentMappingVersion {
		return nil, legacybridge.NewMappingInvalidError(
			fmt.Sprintf("unsupported mapping version %d", doc.Version)).
			WithDetail("supported", CurrentMappingVersion)
	}
	return doc, nil
}

// ValidateMappingDocument checks decoded mapping data against the document
// JSON Schema.
func ValidateMappingDocument(data any) error {
	// normalise YAML scalars to their JSON forms
	raw, err := json.Marshal(data)
	if err != nil {
		return legacybridge.NewMappingInvalidError("mapping document keys must be strings").WithCause(err)
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return legacybridge.NewMappingInvalidError("mapping document is not representable as JSON").WithCause(err)
	}

	var schema jsonschema.Schema
	if err := json.Unmarshal([]byte(mappingDocumentSchema), &schema); err != nil {
		return legacybridge.NewInternalError("failed to unmarshal mapping schema", err)
	}
	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return legacybridge.NewInternalError("failed to resolve mapping schema", err)
	}
	if err := resolved.Validate(instance); err != nil {
		return legacybridge.NewMappingInvalidError("mapping document failed schema validation").WithCause(err)
	}
	return nil
}

// NewSchemaRegistryFromDocument builds the registry of a parsed document.
func NewSchemaRegistryFromDocument(doc *MappingDocument) (legacybridge.SchemaRegistry, error) {
	if doc == nil {
		return nil, legacybridge.NewMappingInvalidError("mapping document is nil")
	}
	return NewStaticSchemaRegistry(doc.Mappings)
}

type nodePair struct {
	key   string
	value *yaml.Node
}

// mappingPairs returns the key/value pairs of a YAML mapping node in order,
// rejecting repeated keys. A null node yields no pairs.
func mappingPairs(node *yaml.Node, path string) ([]nodePair, error) {
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, legacybridge.NewMappingInvalidError(path + " must be a mapping")
	}

	pairs := make([]nodePair, 0, len(node.Content)/2)
	seen := make(map[string]struct{}, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := strings.TrimSpace(node.Content[i].Value)
		if _, dup := seen[key]; dup {
			return nil, legacybridge.NewMappingInvalidError("duplicate key in " + path).
				WithDetail("key", key).
				WithDetail("line", node.Content[i].Line)
		}
		seen[key] = struct{}{}
		pairs = append(pairs, nodePair{key: key, value: node.Content[i+1]})
	}
	return pairs, nil
}

func scalarValue(node *yaml.Node) string {
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node.Value
}

func tableEntry(doc *MappingDocument, index map[string]int, table string) *legacybridge.TableMapping {
	if idx, ok := index[table]; ok {
		return &doc.Mappings[idx]
	}
	index[table] = len(doc.Mappings)
	doc.Mappings = append(doc.Mappings, legacybridge.TableMapping{
		Table: legacybridge.TableAlias{Application: table},
	})
	return &doc.Mappings[len(doc.Mappings)-1]
}
