package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gitrdm/gokanterm/internal/termyaml"
	"github.com/gitrdm/gokanterm/pkg/subst"
	"github.com/gitrdm/gokanterm/pkg/term"
)

func newUnifyCmd(a *app) *cobra.Command {
	var (
		op        string
		signature string
	)
	cmd := &cobra.Command{
		Use:   "unify T1 T2",
		Short: "Unify, match or variant-check two terms",
		Long: `Run one algorithm of the unification family on T1 (scope 0) and T2
(scope 1) and print the resulting substitution, or "fail".

For --op match, T1 is the pattern and T2 the target.

Examples:
  termindex unify '{f: [X, a]}' '{f: [b, Y]}'
  termindex unify --op match '{g: [X]}' '{g: [{g: [a]}]}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := term.NewStore()
			dec := termyaml.NewDecoder(store)
			if signature != "" {
				data, err := os.ReadFile(signature)
				if err != nil {
					return fmt.Errorf("read signature: %w", err)
				}
				if _, err := dec.DecodeClauses(data); err != nil {
					return err
				}
			}
			t1, err := dec.ParseTerm(args[0], termyaml.Vars{})
			if err != nil {
				return err
			}
			t2, err := dec.ParseTerm(args[1], termyaml.Vars{})
			if err != nil {
				return err
			}

			eng := a.engine()
			var (
				sub *subst.Subst
				ok  bool
			)
			switch op {
			case "unify":
				sub, ok = eng.Unify(t1, 0, t2, 1, nil)
			case "match":
				sub, ok = eng.Match(t1, 0, t2, 1, nil)
			case "variant":
				sub, ok = eng.Variant(t1, 0, t2, 1, nil)
			default:
				return fmt.Errorf("unknown op %q (want unify, match or variant)", op)
			}

			out := cmd.OutOrStdout()
			if !ok {
				if eng.Fuel.Exhausted() {
					fmt.Fprintln(out, "fail (fuel exhausted)")
				} else {
					fmt.Fprintln(out, "fail")
				}
				return nil
			}
			ren := subst.NewRenaming(store)
			r1, err := subst.Apply(store, sub, ren, t1, 0)
			if err != nil {
				return err
			}
			r2, err := subst.Apply(store, sub, ren, t2, 1)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, sub)
			fmt.Fprintf(out, "%s\n%s\n", r1, r2)
			return nil
		},
	}
	cmd.Flags().StringVar(&op, "op", "unify", "algorithm: unify, match or variant")
	cmd.Flags().StringVar(&signature, "signature", "", "YAML file whose signature section declares symbol sorts")
	return cmd
}

