package bdd

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kuitang/storefront-e2e/internal/errs"
)

// Undefined is a step text no pattern matches.
type Undefined struct {
	Location string
	Step     string
}

// FindUndefined returns every step across refs that matches no pattern.
func FindUndefined(refs []ScenarioRef, patterns []string) ([]Undefined, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, errs.Wrap(errs.InvalidConfiguration, "step pattern "+p, err)
		}
		compiled = append(compiled, re)
	}

	var out []Undefined
	seen := make(map[string]bool)
	for _, ref := range refs {
		for _, text := range ref.Steps {
			if matchesAny(compiled, text) {
				continue
			}
			key := ref.Location() + "\x00" + text
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, Undefined{Location: ref.Location(), Step: text})
		}
	}
	return out, nil
}

func matchesAny(res []*regexp.Regexp, text string) bool {
	for _, re := range res {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// CheckUndefined fails with InvalidConfiguration when any step is unbound.
func CheckUndefined(refs []ScenarioRef, patterns []string) error {
	missing, err := FindUndefined(refs, patterns)
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		return nil
	}
	lines := make([]string, len(missing))
	for i, u := range missing {
		lines[i] = fmt.Sprintf("%s: %s", u.Location, u.Step)
	}
	return errs.Newf(errs.InvalidConfiguration, "%d undefined step(s):\n%s", len(missing), strings.Join(lines, "\n"))
}
