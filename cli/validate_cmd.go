package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

type validateCmd struct{}

func (c *validateCmd) registerFlags() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [chain-config]",
		Short: "Parse a chain document, build the chain and report the first violation",
		Args:  cobra.MaximumNArgs(1),
	}
}

func (c *validateCmd) run(cl *simpleCLIClient, cmd *cobra.Command, args []string) error {
	chain, err := cl.chain(args)
	if err != nil {
		return err
	}
	deps := 0
	for _, s := range chain.Order() {
		sc, _ := chain.Container(s)
		deps += sc.Len()
	}
	fmt.Fprintf(cl.out, "chain %s ok: scopes %v, %d dependencies\n", chain.ID(), chain.Order(), deps)
	return nil
}
