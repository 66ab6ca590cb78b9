package main

import (
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gitrdm/gokanterm/internal/termyaml"
	"github.com/gitrdm/gokanterm/pkg/index"
	"github.com/gitrdm/gokanterm/pkg/term"
)

const (
	queryScope = 0
	entryScope = 1
)

func newQueryCmd(a *app) *cobra.Command {
	var (
		kindName string
		modeName string
		workers  int
		all      bool
		atom     bool
	)
	cmd := &cobra.Command{
		Use:   "query FILE TERM...",
		Short: "Retrieve indexed entries related to each query term",
		Long: `Load the clauses in FILE, index them, and retrieve for every TERM the
entries of the chosen index that stand in the chosen relation to it.
Candidates are confirmed with the unification engine unless --candidates
is given.

Examples:
  termindex query clauses.yaml '{p: [b, a]}'
  termindex query clauses.yaml --index root --mode generalization '{p: [b, a]}'`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(kindName)
			if err != nil {
				return err
			}
			mode, err := parseMode(modeName)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("workers") {
				workers = a.cfg.Batch.Workers
			}

			ctx, span := tracer.Start(cmd.Context(), "termindex.query",
				trace.WithAttributes(
					attribute.String("file", args[0]),
					attribute.Int("queries", len(args)-1),
				),
			)
			defer span.End()

			data, err := os.ReadFile(args[0])
			if err != nil {
				span.SetStatus(codes.Error, err.Error())
				return fmt.Errorf("read clauses: %w", err)
			}
			store := term.NewStore()
			dec := termyaml.NewDecoder(store)
			clauses, err := dec.DecodeClauses(data)
			if err != nil {
				span.SetStatus(codes.Error, err.Error())
				return err
			}
			ix := index.Empty(index.WithLogger(a.logger))
			for _, c := range clauses {
				ix = ix.IndexClause(c)
			}
			st := ix.Stats()
			a.logger.Info("index built",
				slog.Int("clauses", st.Clauses),
				slog.Int("root_entries", st.Root),
				slog.Int("unit_entries", st.UnitRoot),
				slog.Int("subterm_entries", st.Subterm),
			)

			queries := make([]*term.Term, 0, len(args)-1)
			for _, src := range args[1:] {
				parse := dec.ParseTerm
				if atom {
					parse = dec.ParseAtom
				}
				q, err := parse(src, termyaml.Vars{})
				if err != nil {
					span.SetStatus(codes.Error, err.Error())
					return fmt.Errorf("query %q: %w", src, err)
				}
				queries = append(queries, q)
			}

			results, err := ix.BatchRetrieve(ctx, kind, mode, queries, workers)
			if err != nil {
				span.SetStatus(codes.Error, err.Error())
				return err
			}

			out := cmd.OutOrStdout()
			for _, r := range results {
				fmt.Fprintf(out, "%s (%d candidates)\n", r.Query, len(r.Entries))
				if all {
					for _, e := range r.Entries {
						fmt.Fprintf(out, "  %s %s\n", e.Clause, e.Position)
					}
					continue
				}
				eng := a.engine()
				for e, sub := range index.Confirm(eng, slices.Values(r.Entries), mode, r.Query, queryScope, entryScope) {
					fmt.Fprintf(out, "  %s %s %s\n", e.Clause, e.Position, sub)
				}
				if eng.Fuel.Exhausted() {
					a.logger.Warn("unification fuel exhausted", slog.String("query", r.Query.String()))
				}
			}
			span.SetStatus(codes.Ok, "")
			return nil
		},
	}
	cmd.Flags().StringVar(&kindName, "index", "subterm", "index to query: root, unit or subterm")
	cmd.Flags().StringVar(&modeName, "mode", "unifiable", "relation: unifiable, generalization or specialization")
	cmd.Flags().IntVar(&workers, "workers", 0, "retrieval goroutines (0 uses the configuration)")
	cmd.Flags().BoolVar(&all, "candidates", false, "print unconfirmed candidates")
	cmd.Flags().BoolVar(&atom, "atom", false, "read undeclared query heads as predicates")
	return cmd
}
