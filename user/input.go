// Package user runs an interactive console over a simulated network of
// PNCounter replicas.
package user

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"library/crdtsim/datatypes"
	"library/crdtsim/network"
	"library/crdtsim/scenario"

	"github.com/chzyer/readline"
	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"
)

const usage = `commands:
  add <name>             add a replica
  server <name>          make <name> the server (star only)
  inc <name> <delta>     increment <name> by delta (may be negative)
  query <name>           print the value of <name>
  disconnect <name>      take <name> off the network
  reconnect <name>       put <name> back on the network
  broadcast <name>       push the state of <name> to all peers (p2p only)
  broadcast-all          broadcast from every replica (p2p only)
  sync <name>            sync <name> with the server (star only)
  sync-all               sync every client with the server (star only)
  partitions             print the number of distinct values
  dump                   log the state of every replica
  dot <file>             write the topology in DOT format
  help                   print this text
  quit                   leave
`

type pncounterNetwork interface {
	Disconnect(i int)
	Reconnect(i int)
	CountPartitions() int
	Dump()
	WriteDOT(w io.Writer) error
}

// Console keeps the replicas created interactively and the network they
// live on.
type Console struct {
	out      io.Writer
	slots    map[string]int
	counters map[string]*datatypes.PNCounter
	net      pncounterNetwork
	p2p      *network.P2PNetwork[*datatypes.PNCounter, int64]
	star     *network.StarNetwork[*datatypes.PNCounter, int64]
}

// NewConsole returns a console over an empty network of the given topology.
func NewConsole(topology string, logger log.Logger, m *network.Metrics, out io.Writer) (*Console, error) {

	c := &Console{
		out:      out,
		slots:    make(map[string]int),
		counters: make(map[string]*datatypes.PNCounter),
	}

	switch topology {
	case scenario.TopologyP2P:
		c.p2p = network.NewP2PNetwork[*datatypes.PNCounter, int64](logger, m)
		c.net = c.p2p
	case scenario.TopologyStar:
		c.star = network.NewStarNetwork[*datatypes.PNCounter, int64](logger, m)
		c.net = c.star
	default:
		return nil, errors.Errorf("unknown topology %q", topology)
	}

	return c, nil
}

// Names returns the replica names in alphabetical order.
func (c *Console) Names() []string {
	names := make([]string, 0, len(c.counters))
	for name := range c.counters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Console) lookup(name string) (int, *datatypes.PNCounter, error) {
	counter, ok := c.counters[name]
	if !ok {
		return 0, nil, errors.Errorf("no replica named %q", name)
	}
	return c.slots[name], counter, nil
}

func (c *Console) create(name string) (*datatypes.PNCounter, error) {
	if _, ok := c.counters[name]; ok {
		return nil, errors.Errorf("replica %q already exists", name)
	}
	counter := datatypes.NewPNCounter(name)
	c.counters[name] = counter
	return counter, nil
}

// Exec runs a single command line. It reports whether the console
// should stop.
func (c *Console) Exec(line string) (bool, error) {

	input := strings.Fields(line)
	if len(input) == 0 {
		return false, nil
	}

	cmd, args := input[0], input[1:]
	want := map[string]int{
		"add": 1, "server": 1, "inc": 2, "query": 1, "disconnect": 1, "reconnect": 1,
		"broadcast": 1, "broadcast-all": 0, "sync": 1, "sync-all": 0,
		"partitions": 0, "dump": 0, "dot": 1, "help": 0, "quit": 0, "exit": 0,
	}
	n, ok := want[cmd]
	if !ok {
		return false, errors.Errorf("unknown command %q, try help", cmd)
	}
	if len(args) != n {
		return false, errors.Errorf("%s takes %d argument(s), got %d", cmd, n, len(args))
	}

	switch cmd {
	case "quit", "exit":
		return true, nil
	case "help":
		fmt.Fprint(c.out, usage)
	case "add":
		counter, err := c.create(args[0])
		if err != nil {
			return false, err
		}
		if c.p2p != nil {
			c.slots[args[0]] = c.p2p.Add(counter)
		} else {
			c.slots[args[0]] = c.star.Add(counter)
		}
	case "server":
		if c.star == nil {
			return false, errors.New("server needs a star topology")
		}
		counter, err := c.create(args[0])
		if err != nil {
			return false, err
		}
		for name, slot := range c.slots {
			if slot == 0 {
				delete(c.slots, name)
				delete(c.counters, name)
			}
		}
		c.slots[args[0]] = c.star.SetServerReplica(counter)
	case "inc":
		_, counter, err := c.lookup(args[0])
		if err != nil {
			return false, err
		}
		delta, err := strconv.Atoi(args[1])
		if err != nil {
			return false, errors.Errorf("delta %q is not an integer", args[1])
		}
		return false, counter.Increment(delta)
	case "query":
		_, counter, err := c.lookup(args[0])
		if err != nil {
			return false, err
		}
		fmt.Fprintf(c.out, "%s = %d\n", counter.Name(), counter.Query())
	case "disconnect", "reconnect", "broadcast", "sync":
		slot, _, err := c.lookup(args[0])
		if err != nil {
			return false, err
		}
		return false, c.slotCommand(cmd, slot)
	case "broadcast-all":
		if c.p2p == nil {
			return false, errors.New("broadcast-all needs a p2p topology")
		}
		c.p2p.BroadcastAll()
	case "sync-all":
		if c.star == nil {
			return false, errors.New("sync-all needs a star topology")
		}
		c.star.SyncAllReplicasToServer()
	case "partitions":
		fmt.Fprintf(c.out, "partitions = %d\n", c.net.CountPartitions())
	case "dump":
		c.net.Dump()
	case "dot":
		return false, c.writeDOT(args[0])
	}

	return false, nil
}

func (c *Console) slotCommand(cmd string, slot int) error {
	switch cmd {
	case "disconnect":
		c.net.Disconnect(slot)
	case "reconnect":
		c.net.Reconnect(slot)
	case "broadcast":
		if c.p2p == nil {
			return errors.New("broadcast needs a p2p topology")
		}
		c.p2p.Broadcast(slot)
	case "sync":
		if c.star == nil {
			return errors.New("sync needs a star topology")
		}
		c.star.SyncWithServer(slot)
	}
	return nil
}

func (c *Console) writeDOT(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating DOT file")
	}
	defer file.Close()

	if err := c.net.WriteDOT(file); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "topology written to %s\n", path)
	return nil
}

// LineReader yields input lines; *readline.Instance is one.
type LineReader interface {
	Readline() (string, error)
}

// RunInput reads commands until quit or end of input. Bad commands are
// reported and skipped.
func RunInput(c *Console, rl LineReader) error {
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				return nil
			}
			continue
		} else if err == io.EOF {
			return nil
		} else if err != nil {
			return errors.Wrap(err, "reading input")
		}

		quit, err := c.Exec(line)
		if err != nil {
			fmt.Fprintln(c.out, "error:", err)
			continue
		}
		if quit {
			return nil
		}
	}
}

// NewReadline returns a line editor for the console with completion of
// command names.
func NewReadline() (*readline.Instance, error) {

	completer := readline.NewPrefixCompleter(
		readline.PcItem("add"), readline.PcItem("server"), readline.PcItem("inc"),
		readline.PcItem("query"), readline.PcItem("disconnect"), readline.PcItem("reconnect"),
		readline.PcItem("broadcast"), readline.PcItem("broadcast-all"),
		readline.PcItem("sync"), readline.PcItem("sync-all"),
		readline.PcItem("partitions"), readline.PcItem("dump"), readline.PcItem("dot"),
		readline.PcItem("help"), readline.PcItem("quit"),
	)

	return readline.NewEx(&readline.Config{
		Prompt:          "crdtsim> ",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
}
