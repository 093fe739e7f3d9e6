package host

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/xbuild/internal/adapters/shell"
	"go.trai.ch/xbuild/internal/core/ports"
)

// NodeID is the unique identifier for the host info Graft node.
const NodeID graft.ID = "adapter.host"

func init() {
	graft.Register(graft.Node[ports.HostInfoProvider]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{shell.NodeID},
		Run: func(ctx context.Context) (ports.HostInfoProvider, error) {
			executor, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}
			return NewProvider(executor)
		},
	})
}
