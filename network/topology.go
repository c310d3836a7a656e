package network

import (
	"io"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
	"github.com/pkg/errors"
)

// vertices returns a graph holding one vertex per non-empty slot, labelled
// with the replica name. Offline replicas are drawn dashed.
func (n *network[T, V]) vertices() (graph.Graph[int, int], error) {

	g := graph.New(graph.IntHash)

	for _, r := range n.replicas.All() {
		style := "solid"
		if !r.Online() {
			style = "dashed"
		}

		err := g.AddVertex(r.GetID(),
			graph.VertexAttribute("label", r.Crdt().Name()),
			graph.VertexAttribute("style", style),
		)
		if err != nil {
			return nil, errors.Wrapf(err, "adding slot %d", r.GetID())
		}
	}

	return g, nil
}

func (n *network[T, V]) edge(g graph.Graph[int, int], from, to int) error {
	if err := g.AddEdge(from, to); err != nil {
		return errors.Wrapf(err, "connecting slot %d to %d", from, to)
	}
	return nil
}

func writeDOT(g graph.Graph[int, int], w io.Writer) error {
	return errors.Wrap(draw.DOT(g, w), "rendering topology")
}
