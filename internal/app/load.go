package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/framesched/internal/ctxlog"
	"github.com/specialistvlad/framesched/internal/graph"
	"github.com/specialistvlad/framesched/internal/hclgraph"
	"github.com/specialistvlad/framesched/internal/yamlgraph"
)

// graphLoaders are tried in order; their models are merged.
func graphLoaders() []graph.Loader {
	return []graph.Loader{
		hclgraph.NewLoader(),
		yamlgraph.NewLoader(),
	}
}

// loadGraph loads every frame graph file under path, HCL first, then YAML.
func loadGraph(ctx context.Context, path string) (*graph.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading frame graph...", "graph_path", path)

	var models []*graph.Model
	for _, loader := range graphLoaders() {
		m, err := loader.Load(ctx, path)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}

	model := graph.Merge(models...)
	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("invalid frame graph: %w", err)
	}
	logger.Info("Frame graph loaded successfully.", "tasks", model.Count(), "instances", model.Instances())
	return model, nil
}
