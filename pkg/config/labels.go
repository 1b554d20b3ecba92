// pkg/config/labels.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/David-Botos/sensor-ingress/pkg/content"
)

// labelFile is the YAML layout of a label table:
//
//	labels:
//	  co2: CO2
//	  fire-alarm: Fire-Alarm
type labelFile struct {
	Labels map[string]string `yaml:"labels"`
}

// LoadLabelTable reads a canonical label table from a YAML file. An empty
// path yields the built-in table.
func LoadLabelTable(path string) (content.LabelTable, error) {
	if path == "" {
		return content.DefaultLabelTable(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return content.LabelTable{}, fmt.Errorf("failed to read label table: %w", err)
	}

	var lf labelFile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return content.LabelTable{}, fmt.Errorf("failed to parse label table: %w", err)
	}
	if len(lf.Labels) == 0 {
		return content.LabelTable{}, fmt.Errorf("label table %s has no labels", path)
	}

	return content.NewLabelTable(lf.Labels), nil
}
