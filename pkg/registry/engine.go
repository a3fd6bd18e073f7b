package registry

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed engine_classes.yaml
var engineClassesYAML []byte

// EngineClass describes one engine class: its base class and the methods
// it declares itself.
type EngineClass struct {
	Base    string   `yaml:"base"`
	Methods []string `yaml:"methods"`
}

type engineTable struct {
	classes map[string]EngineClass
	methods map[string]map[string]bool
	// index holds every method name declared by any engine class.
	index map[string]bool
}

var loadEngineTable = sync.OnceValues(func() (*engineTable, error) {
	return decodeEngineTable(engineClassesYAML)
})

func decodeEngineTable(data []byte) (*engineTable, error) {
	var classes map[string]EngineClass
	if err := yaml.Unmarshal(data, &classes); err != nil {
		return nil, fmt.Errorf("failed to decode engine class table: %w", err)
	}
	t := &engineTable{
		classes: classes,
		methods: make(map[string]map[string]bool, len(classes)),
		index:   make(map[string]bool),
	}
	for name, c := range classes {
		set := make(map[string]bool, len(c.Methods))
		for _, m := range c.Methods {
			set[m] = true
			t.index[m] = true
		}
		t.methods[name] = set
	}
	return t, nil
}

func mustEngineTable() *engineTable {
	t, err := loadEngineTable()
	if err != nil {
		panic(err)
	}
	return t
}

// EngineClasses returns the embedded engine class table.
func EngineClasses() map[string]EngineClass {
	return mustEngineTable().classes
}
