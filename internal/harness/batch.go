package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ScenarioNotFoundError is returned when a referenced scenario file doesn't
// exist.
type ScenarioNotFoundError struct {
	Path string
}

// Error implements the error interface.
func (e *ScenarioNotFoundError) Error() string {
	return fmt.Sprintf("scenario file %q does not exist", e.Path)
}

// BatchResult summarises a run over several scenario files.
type BatchResult struct {
	Total    int               `json:"total"`
	Passed   int               `json:"passed"`
	Failed   int               `json:"failed"`
	Failures []ScenarioFailure `json:"failures,omitempty"`

	// Sessions lists the archive session of each executed scenario, in run
	// order. Empty without WithArchive.
	Sessions []string `json:"sessions,omitempty"`
}

// ScenarioFailure is one failed scenario of a batch.
type ScenarioFailure struct {
	Name   string   `json:"name,omitempty"`
	Path   string   `json:"path"`
	Errors []string `json:"errors"`
}

// Pass reports whether every scenario passed.
func (b BatchResult) Pass() bool {
	return b.Failed == 0
}

// ExpandPaths turns files and directories into a sorted list of scenario
// files. A directory contributes its *.yaml and *.yml files (not
// recursively).
func ExpandPaths(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if os.IsNotExist(err) {
			return nil, &ScenarioNotFoundError{Path: p}
		}
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		for _, pattern := range []string{"*.yaml", "*.yml"} {
			matches, err := filepath.Glob(filepath.Join(p, pattern))
			if err != nil {
				return nil, err
			}
			out = append(out, matches...)
		}
	}
	sort.Strings(out)
	return out, nil
}

// ScenarioSession names the archive session of a scenario run in a batch
// archived under session.
func ScenarioSession(session, scenario string) string {
	return session + "/" + scenario
}

// RunFiles loads and runs every scenario file in paths. A scenario that
// fails to load or execute counts as failed; the batch keeps going.
//
// With WithArchive, each scenario is archived under
// ScenarioSession(session, name). A name repeated within the batch gets a
// "#n" suffix so no two runs share a session.
func RunFiles(paths []string, opts ...Option) (BatchResult, error) {
	files, err := ExpandPaths(paths)
	if err != nil {
		return BatchResult{}, err
	}

	var cfg runConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	seen := make(map[string]int)

	var res BatchResult
	for _, path := range files {
		res.Total++
		scenario, err := LoadScenario(path)
		if err != nil {
			res.Failed++
			res.Failures = append(res.Failures, ScenarioFailure{Path: path, Errors: []string{err.Error()}})
			continue
		}

		runOpts := opts
		if cfg.archive != nil {
			name := scenario.Name
			seen[name]++
			if n := seen[name]; n > 1 {
				name = fmt.Sprintf("%s#%d", name, n)
			}
			session := ScenarioSession(cfg.session, name)
			runOpts = append(append([]Option(nil), opts...), withSession(session))
			res.Sessions = append(res.Sessions, session)
		}

		result, err := Run(scenario, runOpts...)
		if err != nil {
			res.Failed++
			res.Failures = append(res.Failures, ScenarioFailure{Name: scenario.Name, Path: path, Errors: []string{err.Error()}})
			continue
		}
		if !result.Pass {
			res.Failed++
			res.Failures = append(res.Failures, ScenarioFailure{Name: scenario.Name, Path: path, Errors: result.Errors})
			continue
		}
		res.Passed++
	}
	return res, nil
}
