// Package browsers translates a browser support list into esbuild target
// engines. Only "Name >= version" queries are understood; anything else is
// reported as ignored.
package browsers

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/evanw/esbuild/pkg/api"
)

var queryRe = regexp.MustCompile(`^\s*([A-Za-z_]+)\s*>=\s*([0-9][0-9.]*)\s*$`)

// engineNames maps lower-cased browser names to esbuild engines.
var engineNames = map[string]api.EngineName{
	"chrome":         api.EngineChrome,
	"and_chr":        api.EngineChrome,
	"android":        api.EngineChrome,
	"edge":           api.EngineEdge,
	"firefox":        api.EngineFirefox,
	"ff":             api.EngineFirefox,
	"explorer":       api.EngineIE,
	"ie":             api.EngineIE,
	"explorermobile": api.EngineIE,
	"ie_mob":         api.EngineIE,
	"ios":            api.EngineIOS,
	"ios_saf":        api.EngineIOS,
	"safari":         api.EngineSafari,
	"opera":          api.EngineOpera,
	"node":           api.EngineNode,
}

// Targets is the result of resolving a browser list.
type Targets struct {
	Engines []api.Engine
	// Ignored holds queries that could not be mapped to an engine.
	Ignored []string
}

// Resolve converts queries into engines. When several queries name the same
// engine the lowest version wins. Engines are returned in esbuild's engine order.
func Resolve(queries []string) (*Targets, error) {
	lowest := make(map[api.EngineName]*semver.Version)

	res := &Targets{}

	for _, q := range queries {
		m := queryRe.FindStringSubmatch(q)
		if m == nil {
			res.Ignored = append(res.Ignored, q)
			continue
		}

		name := strings.ToLower(m[1])

		engine, ok := engineNames[name]
		if !ok {
			res.Ignored = append(res.Ignored, q)
			continue
		}

		v, err := semver.NewVersion(m[2])
		if err != nil {
			return nil, fmt.Errorf("parsing version in browser query %q: %w", q, err)
		}

		if cur, seen := lowest[engine]; !seen || v.LessThan(cur) {
			lowest[engine] = v
		}
	}

	for engine, v := range lowest {
		res.Engines = append(res.Engines, api.Engine{Name: engine, Version: engineVersion(v)})
	}

	sort.Slice(res.Engines, func(i, j int) bool {
		return res.Engines[i].Name < res.Engines[j].Name
	})

	return res, nil
}

func engineVersion(v *semver.Version) string {
	if v.Patch() > 0 {
		return fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch())
	}

	return fmt.Sprintf("%d.%d", v.Major(), v.Minor())
}
