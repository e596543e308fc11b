package bdd

import "strings"

// MatchTags evaluates a godog tag expression against tags. Groups joined by
// "&&" must all hold; within a group "," means OR and a leading "~" negates.
// An empty expression matches everything.
func MatchTags(expr string, tags []string) bool {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return true
	}
	for _, group := range strings.Split(expr, "&&") {
		if !matchAny(group, tags) {
			return false
		}
	}
	return true
}

func matchAny(group string, tags []string) bool {
	for _, term := range strings.Split(group, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		negate := strings.HasPrefix(term, "~")
		name := strings.TrimPrefix(term, "~")
		if hasTag(tags, name) != negate {
			return true
		}
	}
	return false
}

func hasTag(tags []string, name string) bool {
	name = strings.TrimPrefix(strings.TrimSpace(name), "@")
	for _, t := range tags {
		if strings.TrimPrefix(t, "@") == name {
			return true
		}
	}
	return false
}

// Filter keeps the refs with at least one pickle whose own tags satisfy expr,
// narrowed to those pickles. Outline rows are selected by their Examples tags.
func Filter(refs []ScenarioRef, expr string) []ScenarioRef {
	var out []ScenarioRef
	for _, r := range refs {
		if len(r.Pickles) == 0 {
			if MatchTags(expr, r.Tags) {
				out = append(out, r)
			}
			continue
		}
		kept := ScenarioRef{Feature: r.Feature, Name: r.Name, Path: r.Path, Line: r.Line}
		for _, p := range r.Pickles {
			if MatchTags(expr, p.Tags) {
				kept.add(p)
			}
		}
		if kept.Examples > 0 {
			out = append(out, kept)
		}
	}
	return out
}
