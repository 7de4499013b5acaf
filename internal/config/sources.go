package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CompanySources describes the monitored resources for a single company.
type CompanySources struct {
	Name        string   `yaml:"name"`
	PricingURLs []string `yaml:"pricing_urls"`
	DocsURLs    []string `yaml:"docs_urls"`
	Forums      []string `yaml:"forums"`
	Repos       []string `yaml:"repos"`
}

// Sources is the parsed sources.yaml file.
type Sources struct {
	Companies map[string]CompanySources `yaml:"companies"`
}

type keywordsFile struct {
	Keywords []string `yaml:"keywords"`
}

// LoadSources reads and validates the sources config. A missing file or an
// empty company set is a configuration error, fatal before any fetch.
func LoadSources(path string) (*Sources, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources config %s: %w", path, err)
	}

	var src Sources
	if err := yaml.Unmarshal(data, &src); err != nil {
		return nil, fmt.Errorf("failed to parse sources config %s: %w", path, err)
	}

	if len(src.Companies) == 0 {
		return nil, fmt.Errorf("sources config %s defines no companies", path)
	}
	for id, info := range src.Companies {
		if info.Name == "" {
			info.Name = id
			src.Companies[id] = info
		}
	}

	return &src, nil
}

// LoadKeywords reads the keyword list used for signal pre-filtering.
func LoadKeywords(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keywords config %s: %w", path, err)
	}

	var kw keywordsFile
	if err := yaml.Unmarshal(data, &kw); err != nil {
		return nil, fmt.Errorf("failed to parse keywords config %s: %w", path, err)
	}

	if len(kw.Keywords) == 0 {
		return nil, fmt.Errorf("keywords config %s defines no keywords", path)
	}
	return kw.Keywords, nil
}
