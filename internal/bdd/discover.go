// Package bdd discovers Gherkin scenarios and runs each one as its own godog
// suite, so a failing scenario can be retried in isolation.
package bdd

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gherkin "github.com/cucumber/gherkin/go/v26"
	messages "github.com/cucumber/messages/go/v21"

	"github.com/kuitang/storefront-e2e/internal/errs"
)

// Pickle is one expanded run of a scenario: the scenario itself, or one
// example row of an outline with that row's Examples tags.
type Pickle struct {
	Tags  []string
	Steps []string
}

// ScenarioRef points at one Scenario or Scenario Outline in a feature file.
type ScenarioRef struct {
	Feature string
	Name    string
	Path    string
	Line    int64
	// Tags is the union of tags over every pickle the scenario expands to.
	Tags []string
	// Steps holds the expanded step texts of every pickle, in order.
	Steps []string
	// Examples is the number of pickles; 1 for a plain scenario.
	Examples int
	Pickles  []Pickle
}

func (r *ScenarioRef) add(p Pickle) {
	r.Pickles = append(r.Pickles, p)
	r.Examples++
	for _, t := range p.Tags {
		r.Tags = appendUnique(r.Tags, t)
	}
	r.Steps = append(r.Steps, p.Steps...)
}

// Location is the godog path filter selecting this scenario.
func (r ScenarioRef) Location() string {
	return fmt.Sprintf("%s:%d", r.Path, r.Line)
}

// Describe returns "Feature / Name [tags]" for listings.
func (r ScenarioRef) Describe() string {
	s := r.Feature + " / " + r.Name
	if len(r.Tags) > 0 {
		s += " [" + strings.Join(r.Tags, " ") + "]"
	}
	return s
}

// Discover parses every .feature file under paths (files or directories) and
// returns the scenarios in file order.
func Discover(paths []string) ([]ScenarioRef, error) {
	files, err := featureFiles(paths)
	if err != nil {
		return nil, err
	}
	var refs []ScenarioRef
	for _, file := range files {
		got, err := parseFeature(file)
		if err != nil {
			return nil, err
		}
		refs = append(refs, got...)
	}
	return refs, nil
}

func featureFiles(paths []string) ([]string, error) {
	var files []string
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, errs.Wrap(errs.InvalidConfiguration, "feature path "+root, err)
		}
		if !info.IsDir() {
			files = append(files, root)
			continue
		}
		var found []string
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(d.Name(), ".feature") {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, errs.Wrap(errs.InvalidConfiguration, "walk "+root, err)
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}

func parseFeature(path string) ([]ScenarioRef, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidConfiguration, "open feature", err)
	}
	defer f.Close()

	newID := (&messages.Incrementing{}).NewId
	doc, err := gherkin.ParseGherkinDocument(f, newID)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidConfiguration, "parse "+path, err)
	}
	if doc.Feature == nil {
		return nil, nil
	}

	var nodes []*messages.Scenario
	for _, child := range doc.Feature.Children {
		switch {
		case child.Scenario != nil:
			nodes = append(nodes, child.Scenario)
		case child.Rule != nil:
			for _, rc := range child.Rule.Children {
				if rc.Scenario != nil {
					nodes = append(nodes, rc.Scenario)
				}
			}
		}
	}

	refs := make([]ScenarioRef, len(nodes))
	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		refs[i] = ScenarioRef{
			Feature: doc.Feature.Name,
			Name:    n.Name,
			Path:    path,
			Line:    n.Location.Line,
		}
		index[n.Id] = i
	}

	for _, p := range gherkin.Pickles(*doc, path, newID) {
		if len(p.AstNodeIds) == 0 {
			continue
		}
		i, ok := index[p.AstNodeIds[0]]
		if !ok {
			continue
		}
		var pk Pickle
		for _, t := range p.Tags {
			pk.Tags = append(pk.Tags, t.Name)
		}
		for _, s := range p.Steps {
			pk.Steps = append(pk.Steps, s.Text)
		}
		refs[i].add(pk)
	}
	return refs, nil
}

func appendUnique(list []string, v string) []string {
	for _, have := range list {
		if have == v {
			return list
		}
	}
	return append(list, v)
}
