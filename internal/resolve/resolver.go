// Package resolve implements C4: resolving a call-site name to the
// DefinitionNode it targets. One Resolver instance serves every language
// in one executor run, built once graph.Data holds every file's
// definitions (after C3's definition/import passes, before its reference
// pass) — same lifecycle the teacher's SymbolLinkerEngine uses, just
// generalized from one struct per language to a single name index.
//
// Scope note: this implements the name-resolution outcome spec.md §4.4
// describes (prefer same-file, fall back to a project-wide unique match,
// else AmbiguouslyCalls) without the full flow-insensitive expression
// interpreter (local-binding type tracking, receiver-typed extension
// functions, branch-type unification) — those need typed expression
// captures the parse phase does not currently produce. Candidate
// selection is otherwise exactly the decision table §4.4 names: a single
// concrete candidate resolves to Calls, more than one to AmbiguouslyCalls,
// and zero candidates drop the reference entirely.
package resolve

import (
	"sort"

	"github.com/kgraph-dev/kgindex/internal/graph"
	"github.com/kgraph-dev/kgindex/internal/rangeintern"
)

// Resolver implements analyzer.Resolver against one executor run's full
// graph.Data definition set.
type Resolver struct {
	byFileAndName map[string]map[string][]graph.DefinitionKey
	byName        map[string][]graph.DefinitionKey
	data          *graph.Data
}

// New builds a Resolver over data's DefinitionMap. Call once, after every
// file's ProcessDefinitions has run and before any file's ProcessReferences.
func New(data *graph.Data) *Resolver {
	r := &Resolver{
		byFileAndName: make(map[string]map[string][]graph.DefinitionKey),
		byName:        make(map[string][]graph.DefinitionKey),
		data:          data,
	}
	for key, def := range data.DefinitionMap {
		if def.Name == "" {
			continue
		}
		r.byName[def.Name] = append(r.byName[def.Name], key)
		byFile, ok := r.byFileAndName[key.FilePath]
		if !ok {
			byFile = make(map[string][]graph.DefinitionKey)
			r.byFileAndName[key.FilePath] = byFile
		}
		byFile[def.Name] = append(byFile[def.Name], key)
	}
	for _, keys := range r.byName {
		sortKeys(keys)
	}
	for _, byFile := range r.byFileAndName {
		for _, keys := range byFile {
			sortKeys(keys)
		}
	}
	return r
}

func sortKeys(keys []graph.DefinitionKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].FilePath != keys[j].FilePath {
			return keys[i].FilePath < keys[j].FilePath
		}
		return keys[i].FQN < keys[j].FQN
	})
}

// Resolve implements analyzer.Resolver. atByte is accepted for interface
// symmetry with a future scope-aware resolver; the current name-based
// strategy does not need it.
func (r *Resolver) Resolve(filePath string, calleeName string, _ uint32) (targetFilePath string, targetRange *rangeintern.Range, ambiguous bool, ok bool) {
	if byFile, fileOK := r.byFileAndName[filePath]; fileOK {
		if candidates := byFile[calleeName]; len(candidates) == 1 {
			return r.resolveCandidate(candidates[0], false)
		}
	}

	candidates := r.byName[calleeName]
	switch len(candidates) {
	case 0:
		return "", nil, false, false
	case 1:
		return r.resolveCandidate(candidates[0], false)
	default:
		return r.resolveCandidate(candidates[0], true)
	}
}

func (r *Resolver) resolveCandidate(key graph.DefinitionKey, ambiguous bool) (string, *rangeintern.Range, bool, bool) {
	def, ok := r.data.DefinitionMap[key]
	if !ok {
		return "", nil, false, false
	}
	return def.FilePath, def.Range, ambiguous, true
}
