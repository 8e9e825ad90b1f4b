// Package pipeline declares the ingestion stages and analyses as an
// explicit ordered list with dependencies, validated at startup, and
// runs them in order against the graph store.
package pipeline

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const pipelineEnv = "MOVIEGRAPH_PIPELINE_YAML"

//go:embed pipeline.yaml
var specFS embed.FS

// Algorithm names accepted in an analysis spec.
const (
	AlgorithmRankPropagation    = "rank_propagation"
	AlgorithmPairwiseSimilarity = "pairwise_similarity"
)

type Spec struct {
	Pipeline string         `yaml:"pipeline"`
	Version  int            `yaml:"version"`
	Stages   []StageSpec    `yaml:"stages"`
	Analyses []AnalysisSpec `yaml:"analyses"`

	order []string
}

type StageSpec struct {
	Name      string   `yaml:"name"`
	DependsOn []string `yaml:"depends_on"`
	Enabled   *bool    `yaml:"enabled"`
}

type AnalysisSpec struct {
	Name         string  `yaml:"name"`
	Algorithm    string  `yaml:"algorithm"`
	Projection   string  `yaml:"projection"`
	NodeLabel    string  `yaml:"node_label"`
	Relationship string  `yaml:"relationship"`
	Cutoff       float64 `yaml:"cutoff"`
	Limit        int     `yaml:"limit"`
}

// LoadSpec reads the pipeline spec from the path in
// MOVIEGRAPH_PIPELINE_YAML, falling back to the embedded default, and
// validates it. Reordering stages is a configuration change; an
// invalid spec fails startup.
func LoadSpec() (*Spec, error) {
	data, err := readSpec()
	if err != nil {
		return nil, err
	}
	return ParseSpec(data)
}

func ParseSpec(data []byte) (*Spec, error) {
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("pipeline spec: parse: %w", err)
	}
	if err := spec.validate(); err != nil {
		return nil, fmt.Errorf("pipeline spec: %w", err)
	}
	return &spec, nil
}

func readSpec() ([]byte, error) {
	if path := strings.TrimSpace(os.Getenv(pipelineEnv)); path != "" {
		return os.ReadFile(path)
	}
	return specFS.ReadFile("pipeline.yaml")
}

// StageOrder returns the enabled stage names in dependency order.
func (s *Spec) StageOrder() []string {
	return s.order
}

func (s *Spec) validate() error {
	if strings.TrimSpace(s.Pipeline) != "moviegraph_load" {
		return fmt.Errorf("unexpected pipeline: %s", s.Pipeline)
	}
	if len(s.Stages) == 0 {
		return errors.New("no stages defined")
	}

	declared := map[string]bool{}
	enabled := map[string]bool{}
	stages := make([]StageSpec, 0, len(s.Stages))
	for _, stage := range s.Stages {
		name := strings.TrimSpace(stage.Name)
		if name == "" {
			return errors.New("stage name is required")
		}
		// Duplicates are rejected over every declared stage, enabled
		// or not: a disabled stage still reserves its name.
		if declared[name] {
			return fmt.Errorf("duplicate stage name: %s", name)
		}
		declared[name] = true
		if stage.Enabled != nil && !*stage.Enabled {
			continue
		}
		enabled[name] = true
		stage.Name = name
		stages = append(stages, stage)
	}

	for _, stage := range stages {
		for _, dep := range stage.DependsOn {
			dep = strings.TrimSpace(dep)
			if dep == "" {
				continue
			}
			if !enabled[dep] {
				return fmt.Errorf("stage %s: unknown dependency %s", stage.Name, dep)
			}
		}
	}

	order, err := topoOrder(stages)
	if err != nil {
		return err
	}
	s.order = order

	names := map[string]bool{}
	for _, a := range s.Analyses {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			return errors.New("analysis name is required")
		}
		if names[name] {
			return fmt.Errorf("duplicate analysis name: %s", name)
		}
		names[name] = true
		if strings.TrimSpace(a.Projection) == "" {
			return fmt.Errorf("analysis %s: projection name is required", name)
		}
		switch a.Algorithm {
		case AlgorithmRankPropagation:
			if a.NodeLabel == "" || a.Relationship == "" {
				return fmt.Errorf("analysis %s: rank propagation needs node_label and relationship", name)
			}
		case AlgorithmPairwiseSimilarity:
			if a.Cutoff < 0 || a.Cutoff > 1 {
				return fmt.Errorf("analysis %s: cutoff must be within [0, 1]", name)
			}
			if a.Limit <= 0 {
				return fmt.Errorf("analysis %s: limit must be positive", name)
			}
		default:
			return fmt.Errorf("analysis %s: unknown algorithm %q", name, a.Algorithm)
		}
	}
	return nil
}

// topoOrder is a Kahn topological sort, stable by declared order.
func topoOrder(stages []StageSpec) ([]string, error) {
	deg := map[string]int{}
	out := map[string][]string{}
	for _, s := range stages {
		deg[s.Name] = 0
	}
	for _, s := range stages {
		for _, dep := range s.DependsOn {
			dep = strings.TrimSpace(dep)
			if dep == "" {
				continue
			}
			deg[s.Name]++
			out[dep] = append(out[dep], s.Name)
		}
	}

	order := make([]string, 0, len(stages))
	added := map[string]bool{}
	for {
		progressed := false
		for _, s := range stages {
			if added[s.Name] || deg[s.Name] != 0 {
				continue
			}
			added[s.Name] = true
			order = append(order, s.Name)
			for _, n := range out[s.Name] {
				deg[n]--
			}
			progressed = true
		}
		if !progressed {
			break
		}
	}
	if len(order) != len(stages) {
		return nil, errors.New("cycle detected in stage graph")
	}
	return order, nil
}
