package discovery

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	//go:embed models.schema.json
	modelsSchemaJSON string
	//go:embed languages.schema.json
	languagesSchemaJSON string
)

type modelCatalog struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

type languageEntry struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type compiledSchema struct {
	name   string
	source string
	once   sync.Once
	schema *jsonschema.Schema
	err    error
}

var (
	modelsSchema    = &compiledSchema{name: "models.schema.json", source: modelsSchemaJSON}
	languagesSchema = &compiledSchema{name: "languages.schema.json", source: languagesSchemaJSON}
)

func (c *compiledSchema) load() (*jsonschema.Schema, error) {
	c.once.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		if err := compiler.AddResource(c.name, strings.NewReader(c.source)); err != nil {
			c.err = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, err := compiler.Compile(c.name)
		if err != nil {
			c.err = fmt.Errorf("compile schema: %w", err)
			return
		}
		c.schema = schema
	})

	if c.err != nil {
		return nil, c.err
	}
	if c.schema == nil {
		return nil, fmt.Errorf("schema %s not initialized", c.name)
	}
	return c.schema, nil
}

// decodeValidated checks raw against schema and then unmarshals it into dst.
func decodeValidated(raw []byte, schema *compiledSchema, dst any) error {
	value, err := decodeStrictJSON(raw)
	if err != nil {
		return fmt.Errorf("decode payload JSON: %w", err)
	}
	compiled, err := schema.load()
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	if err := compiled.Validate(value); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if err := json.Unmarshal(bytes.TrimSpace(raw), dst); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	return nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("payload contains trailing content")
	}
	return value, nil
}
