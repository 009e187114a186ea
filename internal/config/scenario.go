package config

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// BaselineScenario is the scenario every run compares against.
const BaselineScenario = "baseline"

// mergeScenario overlays config/scenarios/<name>.yaml onto v. The baseline
// scenario may omit its overlay file; any other scenario must have one.
func mergeScenario(v *viper.Viper, name string) error {
	if name == "" {
		name = BaselineScenario
	}

	path := filepath.Join("config", "scenarios", name+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if name == BaselineScenario {
				return nil
			}
			return eris.Errorf("config: scenario %q has no overlay at %s", name, path)
		}
		return eris.Wrapf(err, "config: read scenario %s", path)
	}

	overrides := map[string]interface{}{}
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return eris.Wrapf(err, "config: parse scenario %s", path)
	}
	if err := v.MergeConfigMap(overrides); err != nil {
		return eris.Wrapf(err, "config: merge scenario %s", path)
	}

	zap.L().Debug("merged scenario overlay", zap.String("scenario", name), zap.String("path", path))
	return nil
}
