package broker

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog — YAML-описание топиков:
//
//	topics:
//	  - name: events
//	    partitions: 3
type Catalog struct {
	Topics []CatalogTopic `yaml:"topics"`
}

type CatalogTopic struct {
	Name       string `yaml:"name"`
	Partitions int    `yaml:"partitions"`
}

// LoadCatalog читает каталог топиков из файла.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read topics file: %w", err)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("parse topics file: %w", err)
	}
	for i, t := range c.Topics {
		if t.Name == "" {
			return Catalog{}, fmt.Errorf("topics[%d]: empty name", i)
		}
		if t.Partitions <= 0 {
			return Catalog{}, fmt.Errorf("topic %q: partitions must be > 0, got %d", t.Name, t.Partitions)
		}
	}
	return c, nil
}

// MergeTopics объединяет топики из окружения и из каталога; каталог имеет приоритет.
func MergeTopics(env map[string]int, c Catalog) map[string]int {
	out := make(map[string]int, len(env)+len(c.Topics))
	for name, n := range env {
		out[name] = n
	}
	for _, t := range c.Topics {
		out[t.Name] = t.Partitions
	}
	return out
}
