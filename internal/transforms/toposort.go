package transforms

import (
	"fmt"
	"sort"
)

// topologicalSort performs dependency resolution within a stage using Kahn's algorithm.
// Returns transforms in execution order or an error if dependencies cannot be satisfied.
func topologicalSort(transforms []Transformer) ([]Transformer, error) {
	if len(transforms) == 0 {
		return []Transformer{}, nil
	}

	byName := make(map[string]Transformer)
	for _, t := range transforms {
		name := t.Name()
		if _, exists := byName[name]; exists {
			return nil, fmt.Errorf("duplicate transformer name: %q", name)
		}
		byName[name] = t
	}

	graph := make(map[string][]string)
	inDegree := make(map[string]int)
	for _, t := range transforms {
		graph[t.Name()] = []string{}
		inDegree[t.Name()] = 0
	}

	addEdge := func(from, to string) {
		for _, existing := range graph[from] {
			if existing == to {
				return
			}
		}
		graph[from] = append(graph[from], to)
		inDegree[to]++
	}

	// Constraints naming transforms outside this stage are enforced by stage
	// order and checked by checkStageOrdering.
	for _, t := range transforms {
		name := t.Name()
		deps := t.Dependencies()
		for _, dep := range deps.after() {
			if _, exists := byName[dep]; exists {
				addEdge(dep, name)
			}
		}
		for _, after := range deps.MustRunBefore {
			if _, exists := byName[after]; exists {
				addEdge(name, after)
			}
		}
	}

	var queue []string
	for _, t := range transforms {
		if inDegree[t.Name()] == 0 {
			queue = append(queue, t.Name())
		}
	}
	sort.Strings(queue)

	var result []Transformer
	visited := make(map[string]bool)

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if visited[current] {
			continue
		}
		visited[current] = true
		result = append(result, byName[current])

		neighbors := graph[current]
		sort.Strings(neighbors)
		for _, neighbor := range neighbors {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
				sort.Strings(queue)
			}
		}
	}

	if len(result) != len(transforms) {
		unvisited := []string{}
		for _, t := range transforms {
			if !visited[t.Name()] {
				unvisited = append(unvisited, t.Name())
			}
		}
		sort.Strings(unvisited)
		return nil, fmt.Errorf("circular dependency detected involving transforms: %v", unvisited)
	}

	return result, nil
}

// BuildPipeline constructs the execution order using stages and dependencies.
// Transforms are first grouped by stage, then sorted within each stage by dependencies.
func BuildPipeline(transforms []Transformer) ([]Transformer, error) {
	if len(transforms) == 0 {
		return []Transformer{}, nil
	}

	for _, t := range transforms {
		if !IsValidStage(t.Stage()) {
			return nil, fmt.Errorf("transform %q has invalid stage: %q", t.Name(), t.Stage())
		}
	}
	if err := checkStageOrdering(transforms); err != nil {
		return nil, err
	}

	byStage := make(map[TransformStage][]Transformer)
	for _, t := range transforms {
		byStage[t.Stage()] = append(byStage[t.Stage()], t)
	}

	result := make([]Transformer, 0, len(transforms))
	for _, stage := range StageOrder {
		stageTransforms := byStage[stage]
		if len(stageTransforms) == 0 {
			continue
		}
		sorted, err := topologicalSort(stageTransforms)
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", stage, err)
		}
		result = append(result, sorted...)
	}

	return result, nil
}

// checkStageOrdering rejects constraints that contradict the stage groups,
// such as a resolve transform that must run after a structure transform.
func checkStageOrdering(transforms []Transformer) error {
	byName := make(map[string]Transformer, len(transforms))
	for _, t := range transforms {
		byName[t.Name()] = t
	}
	for _, t := range transforms {
		deps := t.Dependencies()
		for _, dep := range deps.after() {
			if d, ok := byName[dep]; ok && StageIndex(d.Stage()) > StageIndex(t.Stage()) {
				return fmt.Errorf("transform %q (stage %s) must run after %q which runs in later stage %s",
					t.Name(), t.Stage(), dep, d.Stage())
			}
		}
		for _, after := range deps.MustRunBefore {
			if a, ok := byName[after]; ok && StageIndex(a.Stage()) < StageIndex(t.Stage()) {
				return fmt.Errorf("transform %q (stage %s) must run before %q which runs in earlier stage %s",
					t.Name(), t.Stage(), after, a.Stage())
			}
		}
	}
	return nil
}
