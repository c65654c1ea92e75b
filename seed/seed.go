// Package seed parses explicit seed-symbol input (§6): either the
// canonical `lang:path:kind:name:line` string grammar or a JSON array of
// strings/objects.
package seed

import (
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/viant/changeimpact/errkind"
	"github.com/viant/changeimpact/symbol"
)

// jsonSeed mirrors the object form of a JSON seed entry.
type jsonSeed struct {
	Lang      string `json:"lang" yaml:"lang"`
	Path      string `json:"path" yaml:"path"`
	Kind      string `json:"kind" yaml:"kind"`
	Name      string `json:"name" yaml:"name"`
	Line      int    `json:"line" yaml:"line"`
	Container string `json:"container,omitempty" yaml:"container,omitempty"`
}

// yamlSeedFile is the top-level shape of a seed file written in YAML, an
// alternative to the JSON array form for callers who keep their seed lists
// checked into a repo alongside other YAML config.
type yamlSeedFile struct {
	Seeds []yamlSeedEntry `yaml:"seeds"`
}

// yamlSeedEntry accepts either a bare canonical seed string or the object
// form, mirroring ParseJSON's two accepted shapes.
type yamlSeedEntry struct {
	line  string
	obj   jsonSeed
	isObj bool
}

func (e *yamlSeedEntry) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		return value.Decode(&e.line)
	}
	e.isObj = true
	return value.Decode(&e.obj)
}

// ParseLine parses one bare seed string in the canonical grammar.
func ParseLine(s string) (symbol.ID, error) {
	id, err := symbol.Parse(strings.TrimSpace(s))
	if err != nil {
		return symbol.ID{}, errkind.New(errkind.SeedParse, "parsing seed string "+s, err)
	}
	if id.Line <= 0 {
		return symbol.ID{}, errkind.New(errkind.SeedParse, "seed line must be positive: "+s, nil)
	}
	return id, nil
}

// ParseLines parses one seed ID per non-empty input line and enforces the
// single-language constraint across the whole set.
func ParseLines(lines []string) ([]symbol.ID, error) {
	var ids []symbol.ID
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		id, err := ParseLine(trimmed)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, checkSingleLanguage(ids)
}

// ParseJSON parses a JSON array of string IDs or seed objects.
func ParseJSON(data []byte) ([]symbol.ID, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errkind.New(errkind.SeedParse, "parsing seed JSON array", err)
	}

	ids := make([]symbol.ID, 0, len(raw))
	for _, item := range raw {
		var asString string
		if err := json.Unmarshal(item, &asString); err == nil {
			id, err := ParseLine(asString)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
			continue
		}

		var obj jsonSeed
		if err := json.Unmarshal(item, &obj); err != nil {
			return nil, errkind.New(errkind.SeedParse, "seed entry is neither a string nor an object", err)
		}
		id, err := idFromObject(obj)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := checkSingleLanguage(ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// ParseYAML parses a seed file in the `seeds:` YAML form, an alternative to
// ParseJSON for callers who keep seed lists as YAML alongside other config
// (§6, seed-file loading).
func ParseYAML(data []byte) ([]symbol.ID, error) {
	var file yamlSeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errkind.New(errkind.SeedParse, "parsing seed YAML file", err)
	}

	ids := make([]symbol.ID, 0, len(file.Seeds))
	for _, entry := range file.Seeds {
		if entry.isObj {
			id, err := idFromObject(entry.obj)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
			continue
		}
		id, err := ParseLine(entry.line)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := checkSingleLanguage(ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func idFromObject(obj jsonSeed) (symbol.ID, error) {
	lang, err := symbol.ParseLanguage(obj.Lang)
	if err != nil {
		return symbol.ID{}, errkind.New(errkind.SeedParse, "seed object has invalid lang", err)
	}
	if obj.Line <= 0 {
		return symbol.ID{}, errkind.New(errkind.SeedParse, "seed object line must be positive", nil)
	}
	return symbol.ID{
		Language:  lang,
		Path:      obj.Path,
		Kind:      symbol.Kind(obj.Kind),
		Name:      obj.Name,
		Line:      obj.Line,
		Container: obj.Container,
	}, nil
}

func checkSingleLanguage(ids []symbol.ID) error {
	if len(ids) == 0 {
		return nil
	}
	want := ids[0].Language
	for _, id := range ids[1:] {
		if id.Language != want {
			return errkind.New(errkind.MixedLanguage, "seed set spans multiple languages ("+string(want)+" and "+string(id.Language)+")", nil)
		}
	}
	return nil
}

// String renders an ID back to the canonical seed grammar, the inverse of
// ParseLine (delegates to symbol.ID.String, kept here so callers of this
// package never need to import symbol just to round-trip a seed string).
func String(id symbol.ID) string { return id.String() }
