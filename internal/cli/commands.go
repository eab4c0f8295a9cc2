package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quotesync/internal/app"
	"github.com/jsamuelsen/quotesync/internal/bootstrap"
	"github.com/jsamuelsen/quotesync/internal/domain"
)

type quoteJSON struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Category  string `json:"category"`
	UpdatedAt int64  `json:"updatedAt,omitempty"`
}

func toJSON(q domain.Quote) quoteJSON {
	out := quoteJSON{ID: q.ID, Text: q.Text, Category: q.Category}
	if !q.UpdatedAt.IsZero() {
		out.UpdatedAt = q.UpdatedAt.UnixMilli()
	}

	return out
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

func newListCommand(deps commandDeps) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List quotes, optionally in one category",
		Example: "  quotectl list\n" +
			"  quotectl list --category Life --json",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, deps, func(ctx context.Context, a *bootstrap.App) error {
				quotes, _, err := a.Service.List(ctx, category)
				if err != nil {
					return err
				}

				if deps.globals.JSON {
					items := make([]quoteJSON, 0, len(quotes))
					for _, q := range quotes {
						items = append(items, toJSON(q))
					}

					return printJSON(deps.out, items)
				}

				tw := tabwriter.NewWriter(deps.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tCATEGORY\tTEXT")

				for _, q := range quotes {
					fmt.Fprintf(tw, "%d\t%s\t%s\n", q.ID, q.Category, q.Text)
				}

				return tw.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&category, "category", "", `Category to show; "All" or empty shows the persisted selection`)

	return cmd
}

func newAddCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:     "add TEXT CATEGORY",
		Short:   "Add a quote",
		Example: `  quotectl add "Ship it." Work`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 2 {
				return usageError(fmt.Errorf("add takes TEXT and CATEGORY, got %d argument(s)", len(args)))
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, deps, func(ctx context.Context, a *bootstrap.App) error {
				q, err := a.Service.Add(ctx, args[0], args[1])
				if err != nil {
					return err
				}

				if deps.globals.JSON {
					return printJSON(deps.out, toJSON(q))
				}

				_, err = fmt.Fprintf(deps.out, "added quote %d\n", q.ID)

				return err
			})
		},
	}
}

func newCategoriesCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories in first-seen order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, deps, func(ctx context.Context, a *bootstrap.App) error {
				categories := a.Service.Categories(ctx)
				if deps.globals.JSON {
					return printJSON(deps.out, categories)
				}

				for _, c := range categories {
					if _, err := fmt.Fprintln(deps.out, c); err != nil {
						return err
					}
				}

				return nil
			})
		},
	}
}

func newExportCommand(deps commandDeps) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the collection as indented JSON",
		Example: "  quotectl export\n" +
			"  quotectl export --out quotes.json",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, deps, func(ctx context.Context, a *bootstrap.App) error {
				data, err := a.Service.Export(ctx)
				if err != nil {
					return err
				}

				if out == "" || out == "-" {
					_, err = deps.out.Write(append(data, '\n'))
					return err
				}

				if err := os.WriteFile(out, data, 0o600); err != nil {
					return fmt.Errorf("writing %s: %w", out, err)
				}

				_, err = fmt.Fprintf(deps.errOut, "exported %d quote(s) to %s\n", a.Store.Len(), out)

				return err
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "File to write; stdout when empty or -")

	return cmd
}

func newImportCommand(deps commandDeps) *cobra.Command {
	var policy string

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Merge a JSON array of quotes into the collection",
		Example: "  quotectl import quotes.json\n" +
			"  quotectl import quotes.json --policy skip",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usageError(fmt.Errorf("import takes one FILE, got %d argument(s)", len(args)))
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := os.ReadFile(args[0])
			if err != nil {
				return mapCommandError(fmt.Errorf("reading %s: %w", args[0], err))
			}

			return withApp(cmd, deps, func(ctx context.Context, a *bootstrap.App) error {
				res, err := a.Service.Import(ctx, payload, policy)
				if err != nil {
					return err
				}

				if deps.globals.JSON {
					return printJSON(deps.out, res)
				}

				_, err = fmt.Fprintf(deps.out, "Quotes imported successfully! %s\n", describeImport(res))

				return err
			})
		},
	}

	cmd.Flags().StringVar(&policy, "policy", "", "Duplicate id policy: append, skip, replace or reject")

	return cmd
}

func describeImport(r app.ImportResult) string {
	return fmt.Sprintf("(%s: %d received, %d imported, %d replaced, %d skipped)",
		r.Policy, r.Received, r.Imported, r.Replaced, r.Skipped)
}

func newSyncCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reconcile with the remote source once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, deps, func(ctx context.Context, a *bootstrap.App) error {
				res := a.Service.Sync(ctx)

				if deps.globals.JSON {
					if err := printJSON(deps.out, syncJSON(res)); err != nil {
						return err
					}
				} else if _, err := fmt.Fprintln(deps.out, res.Message()); err != nil {
					return err
				}

				return res.Err
			})
		},
	}
}

type syncResultJSON struct {
	Outcome   string `json:"outcome"`
	Message   string `json:"message"`
	Fetched   int    `json:"fetched"`
	Added     int    `json:"added"`
	Conflicts int    `json:"conflicts"`
	Error     string `json:"error,omitempty"`
}

func syncJSON(r app.SyncResult) syncResultJSON {
	out := syncResultJSON{
		Outcome:   string(r.Outcome),
		Message:   r.Message(),
		Fetched:   r.Fetched,
		Added:     r.Added,
		Conflicts: r.Conflicts,
	}

	if r.Err != nil {
		out.Error = r.Err.Error()
	}

	return out
}

func newVersionCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build version information",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if deps.globals.JSON {
				return printJSON(deps.out, deps.build)
			}

			_, err := fmt.Fprintf(deps.out, "version=%s commit=%s build_time=%s\n",
				deps.build.Version, deps.build.Commit, deps.build.BuildTime)

			return err
		},
	}
}
