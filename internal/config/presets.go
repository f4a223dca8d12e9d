package config

import "sort"

var Presets = map[string]map[string]*Config{
	"linear-regression": {
		"slow":    {Algorithm: "linear-regression", Params: map[string]float64{"lr": 0.005}},
		"default": {Algorithm: "linear-regression", Params: map[string]float64{"lr": 0.01}},
		"fast":    {Algorithm: "linear-regression", Params: map[string]float64{"lr": 0.05}},
	},
	"kmeans": {
		"two":   {Algorithm: "kmeans", Params: map[string]float64{"k": 2}},
		"three": {Algorithm: "kmeans", Params: map[string]float64{"k": 3}},
		"six":   {Algorithm: "kmeans", Params: map[string]float64{"k": 6}},
	},
	"decision-tree": {
		"stump": {Algorithm: "decision-tree", Params: map[string]float64{"max_depth": 2}},
		"deep":  {Algorithm: "decision-tree", Params: map[string]float64{"max_depth": 4}},
	},
	"svm": {
		"narrow": {Algorithm: "svm", Params: map[string]float64{"margin": 0.5}},
		"wide":   {Algorithm: "svm", Params: map[string]float64{"margin": 2}},
	},
	"knn": {
		"nearest": {Algorithm: "knn", Params: map[string]float64{"k": 1}},
		"vote":    {Algorithm: "knn", Params: map[string]float64{"k": 7}},
		"smooth":  {Algorithm: "knn", Params: map[string]float64{"k": 15}},
	},
	"gradient-descent": {
		"bowl":    {Algorithm: "gradient-descent", Params: map[string]float64{"lr": 0.1, "objective": 0}},
		"ellipse": {Algorithm: "gradient-descent", Params: map[string]float64{"lr": 0.05, "objective": 1}},
		"diverge": {Algorithm: "gradient-descent", Params: map[string]float64{"lr": 0.5, "objective": 1}},
	},
	"neural-network": {
		"slow": {Algorithm: "neural-network", Speed: 0.5},
	},
	"cnn": {
		"slow": {Algorithm: "cnn", Speed: 0.5},
	},
}

func GetPreset(algorithm, preset string) *Config {
	algoPresets, ok := Presets[algorithm]
	if !ok {
		return nil
	}
	cfg, ok := algoPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(algorithm string) []string {
	algoPresets, ok := Presets[algorithm]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(algoPresets))
	for name := range algoPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
