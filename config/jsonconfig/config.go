package jsonconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/twitter/ice/ice"
)

// Schema holds the different Implementations's the client wants to configure
type Schema map[string]Implementations

// EmptySchema returns an empty Schema, needed if you don't allow configuration
func EmptySchema() Schema {
	return map[string]Implementations{}
}

// Implementations maps the the names of implementations to the Implementation
// As a special case, "" maps to a default implementation that will not be unmarshal'ed,
// and so the Implementation will be used as-is.
type Implementations map[string]Implementation

type Implementation interface {
	// The Implementation needs to do 3 things:
	// 1) parse the JSON config
	// 2) add the relevant Dependencies to the ice MagicBag
	// 3) print its configuration
	// 1 & 3 are handled implicitly by json.(Un)marshal
	// 2 is handled by being an ice Module
	ice.Module
}

type Configuration map[string]ice.Module

// Configuration is itself a Module, that installs each Impl as a Module
// (in Design Patterns terminology, it's a Composite).
// Impls are installed in name order so the resulting Container is stable.
func (c Configuration) Install(bag *ice.MagicBag) {
	for _, k := range sortedKeys(c) {
		bag.InstallModule(c[k])
	}
}

var emptyJson = []byte("{}")

func (schema Schema) Parse(text []byte) (Configuration, error) {
	text, err := ToJSON(text)
	if err != nil {
		return nil, err
	}
	var parsedConfig map[string]json.RawMessage
	err = json.Unmarshal(text, &parsedConfig)
	if err != nil {
		return nil, fmt.Errorf("Couldn't parse top-level config: %v", err)
	}
	return schema.parse(parsedConfig)
}

func (schema Schema) parse(parsedConfig map[string]json.RawMessage) (Configuration, error) {
	log.Debugf("config parsed to:%+v", parsedConfig)
	for optionName := range parsedConfig {
		if _, ok := schema[optionName]; !ok {
			return nil, fmt.Errorf("Error parsing config: %q is not a configurable option", optionName)
		}
	}

	result := Configuration(make(map[string]ice.Module))
	// Parse each option (aka Implementations, which isn't a valid variable name)
	for optionName, impls := range schema {
		optionText := parsedConfig[optionName]
		// Parse this Implementations's JSON just enough to get the type
		implName, err := parseType(optionText)
		if err != nil {
			return nil, fmt.Errorf("Error parsing type for Implementations %v: %v", optionName, err)
		}
		impl, ok := impls[implName]
		if !ok {
			return nil, fmt.Errorf("Error parsing Implementations %v: %q is not a valid Implementation, choose one of %v",
				optionName, implName, sortedKeys(impls))
		}
		impl = fresh(impl)
		if len(optionText) > 0 {
			// Now parse it fully, with the right Implementation
			err = json.Unmarshal(optionText, &impl)
			if err != nil {
				return nil, fmt.Errorf("Error parsing variable %v: %v", optionName, err)
			}
		}
		result[optionName] = impl
	}
	return result, nil
}

// fresh returns a shallow copy of a pointer Implementation, so parsing twice
// never writes through to the Schema's own values.
func fresh(impl Implementation) Implementation {
	v := reflect.ValueOf(impl)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return impl
	}
	cp := reflect.New(v.Elem().Type())
	cp.Elem().Set(v.Elem())
	return cp.Interface().(Implementation)
}

// Find the type, which is simply the string value for the key "Type"
func parseType(data json.RawMessage) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	var t struct{ Type string }
	err := json.Unmarshal(data, &t)
	if err != nil {
		return "", err
	}
	return t.Type, nil
}

// ToJSON returns text as JSON: empty text is "{}", JSON is left alone, and
// anything else is read as YAML.
func ToJSON(text []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(text)
	if len(trimmed) == 0 {
		return emptyJson, nil
	}
	if trimmed[0] == '{' {
		return trimmed, nil
	}
	var doc interface{}
	if err := yaml.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("Couldn't parse config as JSON or YAML: %v", err)
	}
	if doc == nil {
		return emptyJson, nil
	}
	return json.Marshal(jsonable(doc))
}

// jsonable turns the map[interface{}]interface{} values YAML may produce into
// map[string]interface{}.
func jsonable(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = jsonable(val)
		}
		return m
	case map[string]interface{}:
		for k, val := range t {
			t[k] = jsonable(val)
		}
		return t
	case []interface{}:
		for i, val := range t {
			t[i] = jsonable(val)
		}
		return t
	default:
		return v
	}
}

var configFileRe = regexp.MustCompile(`^[[:alnum:]_./-]*\.(json|yaml|yml)$`)

// GetConfigText finds the right text for a configFlag.
// If configFlag looks like a filename (ending in .json, .yaml or .yml), read it
// with asset. Otherwise, assume it's the literal config text.
func GetConfigText(configFlag string, asset func(string) ([]byte, error)) ([]byte, error) {
	if configFileRe.MatchString(configFlag) {
		log.Infof("reading config filename %v", configFlag)
		configText, err := asset(configFlag)
		if err != nil {
			return nil, fmt.Errorf("Error Loading Config File %v: %v", configFlag, err)
		}
		return configText, nil
	}
	log.Debugf("using config flag as literal config: %v", configFlag)
	return []byte(configFlag), nil
}
