// Package scenario drives counter replicas through scripted and randomized
// partition/heal sequences and checks what the networks report.
package scenario

import (
	"fmt"

	"library/crdtsim/network"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"
)

// Scenario is a named simulation run.
type Scenario struct {
	Name string
	Run  func(logger log.Logger, m *network.Metrics) error
}

// Scripted lists the scripted scenarios in the order they are run by default.
var Scripted = []Scenario{
	{Name: "gcounter-p2p", Run: GCounterP2P},
	{Name: "gcounter-star", Run: GCounterStar},
	{Name: "pncounter-p2p", Run: PNCounterP2P},
	{Name: "pncounter-star", Run: PNCounterStar},
}

// Lookup returns the scripted scenario called name.
func Lookup(name string) (Scenario, error) {
	for _, s := range Scripted {
		if s.Name == name {
			return s, nil
		}
	}
	return Scenario{}, errors.Errorf("unknown scenario %q", name)
}

// Names returns the names of the scripted scenarios.
func Names() []string {
	names := make([]string, len(Scripted))
	for i, s := range Scripted {
		names[i] = s.Name
	}
	return names
}

type partitioned interface {
	CountPartitions() int
}

type named interface {
	Name() string
}

func expectPartitions(n partitioned, want int) error {
	if got := n.CountPartitions(); got != want {
		return errors.Errorf("expected %d partitions, got %d", want, got)
	}
	return nil
}

// expectQueries checks the value of each replica, in order.
func expectQueries[V comparable](replicas []named, query func(int) V, want ...V) error {
	for i, w := range want {
		if got := query(i); got != w {
			return errors.Errorf("expected %s to hold %v, got %v", replicas[i].Name(), w, got)
		}
	}
	return nil
}

// step runs checks in order and names the first failing one.
type step struct {
	scenario string
	err      error
}

func (s *step) check(name string, err error) {
	if s.err == nil && err != nil {
		s.err = errors.Wrap(err, fmt.Sprintf("%s: %s", s.scenario, name))
	}
}
