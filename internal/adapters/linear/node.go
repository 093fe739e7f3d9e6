package linear

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/xbuild/internal/adapters/detector"
	"go.trai.ch/xbuild/internal/core/ports"
)

// NodeID is the unique identifier for the renderer factory Graft node.
const NodeID graft.ID = "adapter.linear_renderer"

// Factory builds a renderer for an output mode.
type Factory func(mode detector.OutputMode) ports.Renderer

func init() {
	graft.Register(graft.Node[Factory]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (Factory, error) {
			return func(mode detector.OutputMode) ports.Renderer {
				return NewRenderer(nil, nil, mode == detector.ModeInteractive)
			}, nil
		},
	})
}
