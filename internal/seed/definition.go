package seed

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultDefinition []byte

// Definition is the YAML shape of a seed file: board templates with their
// starter category trees, plus default menu trees per namespace.
type Definition struct {
	Boards []BoardTemplate `yaml:"boards"`
	Menus  []MenuTemplate  `yaml:"menus"`
}

// BoardTemplate describes one board and its starter categories
type BoardTemplate struct {
	Code        string             `yaml:"code"`
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Type        string             `yaml:"type"`
	Categories  []CategoryTemplate `yaml:"categories"`
}

// CategoryTemplate describes one category node; Children nest arbitrarily
type CategoryTemplate struct {
	Code        string             `yaml:"code"`
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Icon        string             `yaml:"icon"`
	Color       string             `yaml:"color"`
	Children    []CategoryTemplate `yaml:"children"`
}

// MenuTemplate describes one menu namespace and its item tree
type MenuTemplate struct {
	Namespace string             `yaml:"namespace"`
	Items     []MenuItemTemplate `yaml:"items"`
}

// MenuItemTemplate describes one menu item; Children nest arbitrarily
type MenuItemTemplate struct {
	Code     string             `yaml:"code"`
	Name     string             `yaml:"name"`
	URL      string             `yaml:"url"`
	Target   string             `yaml:"target"`
	Icon     string             `yaml:"icon"`
	Children []MenuItemTemplate `yaml:"children"`
}

// Load reads a seed definition from path, or the embedded defaults when
// path is empty.
func Load(path string) (*Definition, error) {
	data := defaultDefinition
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read seed file: %w", err)
		}
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &def, nil
}
