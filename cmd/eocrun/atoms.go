package main

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/sbl8/eoc/atoms"
)

func newAtomsCmd() *cobra.Command {
	var disassemble bool
	atomsCmd := &cobra.Command{
		Use:   "atoms",
		Short: "list the atoms the engine can bind λ names to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listAtoms(cmd.OutOrStdout(), disassemble)
			return nil
		},
	}
	atomsCmd.Flags().BoolVar(&disassemble, "disassemble", false, "print the bytecode program of every interpreted atom")
	return atomsCmd
}

func listAtoms(out io.Writer, disassemble bool) {
	bytecode := atoms.BytecodeCatalog()

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"NAME", "FLAVORS", "INSTRUCTIONS"})
	for _, name := range atoms.NativeCatalog().Names() {
		flavors, size := "native", "-"
		if a, ok := bytecode[name].(*atoms.Interpreted); ok {
			flavors = "native, bytecode"
			size = fmt.Sprint(len(a.Program()))
		}
		table.Append([]string{name, flavors, size})
	}
	table.Render()

	if !disassemble {
		return
	}
	for _, name := range bytecode.Names() {
		a, ok := bytecode[name].(*atoms.Interpreted)
		if !ok {
			continue
		}
		fmt.Fprintf(out, "\n%s:\n%s", name, a.Program())
	}
}
