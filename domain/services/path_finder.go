package services

import (
	"context"
	"errors"
	"fmt"

	"pathfinder-backend/domain/core/aggregates"
	"pathfinder-backend/domain/core/valueobjects"
)

var (
	ErrStartTopicNotFound  = errors.New("start topic not found")
	ErrTargetTopicNotFound = errors.New("target topic not found")
)

// cancellation is checked once per this many expansion steps
const ctxCheckInterval = 256

// PathLimits bounds the search. A zero field disables that bound.
type PathLimits struct {
	// MaxPaths stops the search once this many paths were recorded.
	MaxPaths int
	// MaxDepth is the largest number of topics a path may contain.
	MaxDepth int
}

// PathResult holds the paths in discovery order. Truncated is set when a
// limit cut the search short, so more paths may exist.
type PathResult struct {
	Paths     [][]string `json:"paths"`
	Truncated bool       `json:"truncated"`
}

// PathFinder enumerates simple directed paths over a graph snapshot
type PathFinder struct {
	limits PathLimits
}

// NewPathFinder creates a path finder with the given bounds
func NewPathFinder(limits PathLimits) *PathFinder {
	return &PathFinder{limits: limits}
}

// Limits returns the configured bounds
func (f *PathFinder) Limits() PathLimits { return f.limits }

type frame struct {
	node valueobjects.TopicID
	next int
}

// FindPaths returns every simple path from start to target, each rendered
// as topic names. Paths are discovered depth first following successors in
// edge order. When start equals target the only path is [start].
func (f *PathFinder) FindPaths(ctx context.Context, snap *aggregates.GraphSnapshot, start, target string) (*PathResult, error) {
	startID, ok := snap.TopicIDByName(start)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrStartTopicNotFound, start)
	}
	targetID, ok := snap.TopicIDByName(target)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTargetTopicNotFound, target)
	}

	result := &PathResult{Paths: [][]string{}}
	if startID == targetID {
		result.Paths = append(result.Paths, []string{snap.NameOf(startID)})
		return result, nil
	}

	adj := snap.Adjacency()
	path := []valueobjects.TopicID{startID}
	onPath := map[valueobjects.TopicID]bool{startID: true}
	stack := []frame{{node: startID}}

	for steps := 1; len(stack) > 0; steps++ {
		if steps%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		top := &stack[len(stack)-1]
		successors := adj[top.node]
		if top.next >= len(successors) {
			delete(onPath, top.node)
			stack = stack[:len(stack)-1]
			path = path[:len(path)-1]
			continue
		}

		next := successors[top.next]
		top.next++
		if onPath[next] {
			continue
		}

		if next == targetID {
			if f.limits.MaxDepth > 0 && len(path)+1 > f.limits.MaxDepth {
				result.Truncated = true
				continue
			}
			if f.limits.MaxPaths > 0 && len(result.Paths) >= f.limits.MaxPaths {
				result.Truncated = true
				return result, nil
			}
			result.Paths = append(result.Paths, f.render(snap, path, next))
			continue
		}

		// a path through next needs at least one more node to reach target
		if f.limits.MaxDepth > 0 && len(path)+2 > f.limits.MaxDepth {
			result.Truncated = true
			continue
		}
		path = append(path, next)
		onPath[next] = true
		stack = append(stack, frame{node: next})
	}

	return result, nil
}

func (f *PathFinder) render(snap *aggregates.GraphSnapshot, path []valueobjects.TopicID, last valueobjects.TopicID) []string {
	names := make([]string, 0, len(path)+1)
	for _, id := range path {
		names = append(names, snap.NameOf(id))
	}
	return append(names, snap.NameOf(last))
}
