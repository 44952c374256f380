package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/jacentio/classtree/hierarchy"
)

// planNamespace seeds the class ids derived from plan paths.
var planNamespace = uuid.MustParse("7d4f0a8e-3c1b-5e92-a6d7-0b8c2f41e9d3")

// Plan is the YAML description of a class hierarchy.
type Plan struct {
	Classes []PlanClass `yaml:"classes"`
}

// PlanClass is one class of a plan with its objects and subclasses.
type PlanClass struct {
	Name     string      `yaml:"name"`
	Objects  []string    `yaml:"objects,omitempty"`
	Children []PlanClass `yaml:"children,omitempty"`
}

// loadPlan reads and parses a plan file.
func loadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan: %w", err)
	}
	return parsePlan(data)
}

func parsePlan(data []byte) (*Plan, error) {
	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parsing plan: %w", err)
	}
	if len(plan.Classes) == 0 {
		return nil, errors.New("plan has no classes")
	}
	return &plan, nil
}

// buildResult summarises applying a plan to a registry.
type buildResult struct {
	Assigned int
	// Skipped objects are named by the plan but missing from the store.
	Skipped []hierarchy.ObjectID
	// Failed holds the tag writes the store rejected.
	Failed []error
}

// planIDs derives class ids from plan paths, so applying the same plan twice
// yields the same ids and existing tags keep pointing at the right class.
type planIDs struct {
	next string
	seen map[string]int
}

func newPlanIDs() *planIDs {
	return &planIDs{seen: make(map[string]int)}
}

// prepare selects the id the next call to generate returns.
func (p *planIDs) prepare(path string) {
	p.seen[path]++
	p.next = path + "#" + strconv.Itoa(p.seen[path])
}

func (p *planIDs) generate() uuid.UUID {
	return uuid.NewSHA1(planNamespace, []byte(p.next))
}

// newPlanRegistry creates a registry whose class ids follow plan paths.
func newPlanRegistry(sync hierarchy.SyncAdapter, logger *slog.Logger) (*hierarchy.Registry, *planIDs) {
	ids := newPlanIDs()
	cfg := hierarchy.DefaultConfig()
	cfg.NewID = ids.generate
	return hierarchy.New(sync, cfg, logger), ids
}

// buildPlan creates the plan's classes in order and assigns their objects.
// Tag write failures are collected; any other error aborts the build.
func buildPlan(ctx context.Context, r *hierarchy.Registry, ids *planIDs, plan *Plan) (buildResult, error) {
	var res buildResult
	for _, c := range plan.Classes {
		if err := buildClass(ctx, r, ids, c, uuid.Nil, nil, &res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func buildClass(ctx context.Context, r *hierarchy.Registry, ids *planIDs, c PlanClass, parent hierarchy.ClassID, path []string, res *buildResult) error {
	path = append(slices.Clip(path), strings.TrimSpace(c.Name))
	ids.prepare(strings.Join(path, "/"))

	id, err := r.CreateClass(c.Name)
	if err != nil {
		return fmt.Errorf("class %q: %w", strings.Join(path, " / "), err)
	}
	if parent != uuid.Nil {
		if err := r.Reparent(id, parent); err != nil {
			return fmt.Errorf("class %q: %w", strings.Join(path, " / "), err)
		}
	}

	for _, raw := range c.Objects {
		obj := hierarchy.ObjectID(raw)
		err := r.AssignObject(ctx, obj, id)
		switch {
		case errors.Is(err, hierarchy.ErrSyncWrite):
			res.Failed = append(res.Failed, err)
		case err != nil:
			return err
		}
		if owner, ok := r.ClassOf(obj); !ok || owner != id {
			res.Skipped = append(res.Skipped, obj)
			continue
		}
		res.Assigned++
	}

	for _, child := range c.Children {
		if err := buildClass(ctx, r, ids, child, id, path, res); err != nil {
			return err
		}
	}
	return nil
}
