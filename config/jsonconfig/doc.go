/*
Jsonconfig implements configuration, reading json (or yaml) into ice Modules.

To use:

1) Create the Schema. List your configurable Implementations. Each Implementations
can be backed by several named Implementations.
 2. Schema.Parse parses bytes and creates a Configuration.
    a) for each Implementations, pick which Implementation.
    b) json.Unmarshal the json into a copy of that Implementation
    c) Implementation can now be used as a Module or json.Marshal'ed to print its configuration
 3. Configuration is an ice Module that installs each Implementation

A ChainSchema does the same for a whole ice.ScopeChain: one Schema per scope,
and a document of the form {"Scopes": [...], "Bindings": {scope: {...}}}.

Example:
1) Create the Schema

	schema := jsonconfig.Schema(map[string]jsonconfig.Implementations{
	 "db": {
	  "memory": &MemDBConfig{},
	  "": &MemDBConfig{Type: "memory", ConnectAttempts: 3},
	 },
	 "cache": {
	  "lru": &LRUCacheConfig{},
	  "": &LRUCacheConfig{Type: "lru", Size: 128},
	 },
	}

2) Parse

	mod, _ := schema.Parse([]byte(`{
	 "db": {
	  "Type": "memory",
	  "ConnectAttempts": 5
	 }
	}`)

3) Install the Configuration

bag.InstallModule(mod)

# Notes

Non-default Implementations in a Schema should be left zero valued except for their
Type; only the "" default is used as-is.
*/
package jsonconfig
