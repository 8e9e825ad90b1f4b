package domain

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed dataset.yaml
var sampleFS embed.FS

// Dataset bundles every descriptor batch for one ingestion run. Slice
// order is preserved end to end.
type Dataset struct {
	Genres     []string          `yaml:"genres"`
	Companies  []Company         `yaml:"companies"`
	Movies     []Movie           `yaml:"movies"`
	Characters []Character       `yaml:"characters"`
	Actors     []ActingCredit    `yaml:"actors"`
	Directors  []DirectingCredit `yaml:"directors"`
	Users      []string          `yaml:"users"`
	Reviews    []Review          `yaml:"reviews"`
	Follows    []Follow          `yaml:"follows"`
	Releases   []Release         `yaml:"releases"`
	Versions   []Version         `yaml:"versions"`
}

// SampleDataset returns the embedded demo dataset.
func SampleDataset() (*Dataset, error) {
	data, err := sampleFS.ReadFile("dataset.yaml")
	if err != nil {
		return nil, fmt.Errorf("dataset: read embedded sample: %w", err)
	}
	return parseDataset(data)
}

// LoadDataset reads a dataset from a YAML file on disk.
func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", path, err)
	}
	return parseDataset(data)
}

func parseDataset(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("dataset: parse: %w", err)
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

// Validate checks the internal references of the dataset: every genre,
// movie, user, and character referenced by an edge descriptor must be
// declared in the same dataset. Loading is ordered so that declared
// targets are merged before the edges that reference them; a reference
// missing here would surface later as a dependency violation against
// the store, so it is rejected up front.
func (d *Dataset) Validate() error {
	genres := stringSet(d.Genres)
	users := stringSet(d.Users)

	movies := map[string]bool{}
	for _, m := range d.Movies {
		if m.Title == "" {
			return fmt.Errorf("dataset: movie with empty title")
		}
		movies[m.Title] = true
		for _, g := range m.Genres {
			if !genres[g] {
				return fmt.Errorf("dataset: movie %q references undeclared genre %q", m.Title, g)
			}
		}
	}

	characters := map[string]bool{}
	for _, c := range d.Characters {
		if c.Name == "" || c.Movie == "" {
			return fmt.Errorf("dataset: character needs both name and movie")
		}
		if !movies[c.Movie] {
			return fmt.Errorf("dataset: character %q references undeclared movie %q", c.Name, c.Movie)
		}
		characters[c.Movie+"/"+c.Name] = true
	}

	for _, a := range d.Actors {
		if !characters[a.Movie+"/"+a.Character] {
			return fmt.Errorf("dataset: actor %q references undeclared character %q in %q", a.Name, a.Character, a.Movie)
		}
	}
	for _, dir := range d.Directors {
		if !movies[dir.Movie] {
			return fmt.Errorf("dataset: director %q references undeclared movie %q", dir.Name, dir.Movie)
		}
	}
	for _, r := range d.Reviews {
		if !users[r.User] {
			return fmt.Errorf("dataset: review references undeclared user %q", r.User)
		}
		if !movies[r.Movie] {
			return fmt.Errorf("dataset: review references undeclared movie %q", r.Movie)
		}
	}
	for _, f := range d.Follows {
		if !users[f.Follower] || !users[f.Followee] {
			return fmt.Errorf("dataset: follow %s -> %s references an undeclared user", f.Follower, f.Followee)
		}
	}
	for _, r := range d.Releases {
		if !movies[r.Movie] {
			return fmt.Errorf("dataset: release (%s, %s) references undeclared movie %q", r.Region, r.Date, r.Movie)
		}
	}
	for _, v := range d.Versions {
		if !movies[v.Movie] {
			return fmt.Errorf("dataset: version %q references undeclared movie %q", v.Label, v.Movie)
		}
	}
	return nil
}

func stringSet(in []string) map[string]bool {
	out := make(map[string]bool, len(in))
	for _, s := range in {
		out[s] = true
	}
	return out
}
