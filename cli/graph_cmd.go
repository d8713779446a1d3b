package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

type graphCmd struct {
	topo bool
}

func (c *graphCmd) registerFlags() *cobra.Command {
	r := &cobra.Command{
		Use:   "graph [chain-config]",
		Short: "Print the dependency graph of a chain as DOT",
		Args:  cobra.MaximumNArgs(1),
	}
	r.Flags().BoolVar(&c.topo, "topo", false, "print a construction order, one scope/name per line, instead of DOT")
	return r
}

func (c *graphCmd) run(cl *simpleCLIClient, cmd *cobra.Command, args []string) error {
	chain, err := cl.chain(args)
	if err != nil {
		return err
	}
	g := chain.Graph()
	if !c.topo {
		fmt.Fprint(cl.out, g.DOT())
		return nil
	}
	order, err := g.TopoOrder()
	if err != nil {
		return err
	}
	for _, id := range order {
		fmt.Fprintln(cl.out, id)
	}
	return nil
}
