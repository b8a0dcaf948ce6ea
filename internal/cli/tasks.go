package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/workint/internal/provider"
	"github.com/roach88/workint/internal/queryir"
	"github.com/roach88/workint/internal/resource"
	"github.com/roach88/workint/internal/schema"
)

// filterFlags are the task filter flags shared by list, update and delete.
type filterFlags struct {
	category      string
	startedAfter  string
	startedBefore string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.category, "category", "", "only tasks of this category")
	cmd.Flags().StringVar(&f.startedAfter, "started-after", "", "only tasks started after this epoch millisecond")
	cmd.Flags().StringVar(&f.startedBefore, "started-before", "", "only tasks started before this epoch millisecond")
}

func (f *filterFlags) selection() (queryir.Selection, error) {
	filter, err := provider.ParseFilter(map[string]string{
		provider.ParamCategory:      f.category,
		provider.ParamStartedAfter:  f.startedAfter,
		provider.ParamStartedBefore: f.startedBefore,
	})
	if err != nil {
		return queryir.Selection{}, err
	}
	return filter.Selection(), nil
}

// addressArg returns the address argument, defaulting to the collection.
func addressArg(args []string) string {
	if len(args) == 0 {
		return resource.CollectionPath
	}
	return args[0]
}

// parseAssignments turns key=value pairs into Values. The value null
// clears a column.
func parseAssignments(pairs []string) (schema.Values, error) {
	m := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return schema.Values{}, fmt.Errorf("%w: %q is not key=value", schema.ErrInvalidValue, pair)
		}
		if value == "null" {
			m[key] = nil
		} else {
			m[key] = value
		}
	}
	return schema.FromMap(m)
}

// taskTable is the result of list.
type taskTable struct {
	Columns []string         `json:"columns"`
	Tasks   []map[string]any `json:"tasks"`
	Count   int              `json:"count"`
}

func (t taskTable) String() string {
	if t.Count == 0 {
		return "no tasks"
	}
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(t.Columns, "\t")))
	for _, row := range t.Tasks {
		cells := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			cells[i] = formatCell(row[col])
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	w.Flush()
	return strings.TrimRight(b.String(), "\n")
}

func formatCell(v any) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(v)
}

// taskRecord is the result of get.
type taskRecord struct {
	schema.Task
}

func (r taskRecord) String() string {
	duration := "-"
	if r.Duration != nil {
		duration = fmt.Sprint(*r.Duration)
	}
	return fmt.Sprintf("id:       %d\ncategory: %s\nstarted:  %d\nduration: %s",
		r.ID, r.Category, r.Started, duration)
}

// created is the result of add.
type created struct {
	ID   int64  `json:"id"`
	Path string `json:"path"`
	URI  string `json:"uri"`
}

func (c created) String() string {
	return fmt.Sprintf("created %s", c.Path)
}

// changed is the result of update and delete.
type changed struct {
	Action string `json:"action"`
	Count  int64  `json:"count"`
}

func (c changed) String() string {
	return fmt.Sprintf("%s %d task(s)", c.Action, c.Count)
}

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	filter     filterFlags
	Projection []string
	Sort       string
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list [address]",
		Short: "List tasks",
		Long: `List the tasks at an address (default /tasks).

Example:
  workint list
  workint list --category work --sort "started DESC"
  workint list --projection category,started --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, addressArg(args), cmd)
		},
	}

	opts.filter.register(cmd)
	cmd.Flags().StringSliceVarP(&opts.Projection, "projection", "p", nil, "columns to show (default all)")
	cmd.Flags().StringVar(&opts.Sort, "sort", "", `sort order, e.g. "started DESC, id"`)

	return cmd
}

func runList(opts *ListOptions, address string, cmd *cobra.Command) error {
	sel, err := opts.filter.selection()
	if err != nil {
		return providerError("invalid filter", err)
	}
	order, err := queryir.ParseSort(opts.Sort)
	if err != nil {
		return providerError("invalid sort order", err)
	}

	sess, err := opts.openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	cur, err := sess.provider.Query(commandContext(cmd), address, provider.QueryArgs{
		Projection: opts.Projection,
		Selection:  sel,
		Order:      order,
	})
	if err != nil {
		return providerError("failed to query tasks", err)
	}
	defer cur.Close()

	table := taskTable{Columns: cur.Columns(), Tasks: []map[string]any{}}
	for cur.Next() {
		task, err := cur.Task()
		if err != nil {
			return WrapExitError(ExitFailure, "failed to read task", err)
		}
		table.Tasks = append(table.Tasks, task.Fields(table.Columns))
	}
	if err := cur.Err(); err != nil {
		return WrapExitError(ExitFailure, "failed to read tasks", err)
	}
	table.Count = len(table.Tasks)

	return opts.formatter(cmd).Success(table)
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := rootOpts

	return &cobra.Command{
		Use:   "get <address>",
		Short: "Show one task",
		Long: `Show the task at an item address.

Example:
  workint get /tasks/3
  workint get content://de.nenick.workinterruption/tasks/3 --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := opts.openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			task, err := sess.provider.Get(commandContext(cmd), args[0])
			if err != nil {
				return providerError("failed to get task", err)
			}
			return opts.formatter(cmd).Success(taskRecord{task})
		},
	}
}

// WriteOptions holds flags for add and update.
type WriteOptions struct {
	*RootOptions
	filter filterFlags
	Set    []string
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WriteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task",
		Long: `Create a task in /tasks. category is required; started defaults to now.

Example:
  workint add --set category=work
  workint add --set category=meeting --set started=1700000000000 --set duration=30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(opts, cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Set, "set", "s", nil, "column assignment key=value (repeatable)")

	return cmd
}

func runAdd(opts *WriteOptions, cmd *cobra.Command) error {
	values, err := parseAssignments(opts.Set)
	if err != nil {
		return providerError("invalid values", err)
	}

	sess, err := opts.openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	addr, err := sess.provider.Insert(commandContext(cmd), resource.CollectionPath, values)
	if err != nil {
		return providerError("failed to create task", err)
	}

	return opts.formatter(cmd).Success(created{
		ID:   addr.ID,
		Path: addr.Path(),
		URI:  sess.provider.Router().ContentURI(addr),
	})
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WriteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update <address>",
		Short: "Update tasks",
		Long: `Assign columns on the tasks at an address. Filter flags narrow the
set further; the value null clears a column.

Example:
  workint update /tasks/3 --set duration=45
  workint update /tasks --category meeting --set category=interrupt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(opts, args[0], cmd)
		},
	}

	opts.filter.register(cmd)
	cmd.Flags().StringArrayVarP(&opts.Set, "set", "s", nil, "column assignment key=value (repeatable)")

	return cmd
}

func runUpdate(opts *WriteOptions, address string, cmd *cobra.Command) error {
	values, err := parseAssignments(opts.Set)
	if err != nil {
		return providerError("invalid values", err)
	}
	sel, err := opts.filter.selection()
	if err != nil {
		return providerError("invalid filter", err)
	}

	sess, err := opts.openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	n, err := sess.provider.Update(commandContext(cmd), address, values, sel)
	if err != nil {
		return providerError("failed to update tasks", err)
	}
	return opts.formatter(cmd).Success(changed{Action: "updated", Count: n})
}

// DeleteOptions holds flags for the delete command.
type DeleteOptions struct {
	*RootOptions
	filter filterFlags
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeleteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "delete <address>",
		Short: "Delete tasks",
		Long: `Delete the tasks at an address, narrowed by the filter flags.

Example:
  workint delete /tasks/3
  workint delete /tasks --started-before 1700000000000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := opts.filter.selection()
			if err != nil {
				return providerError("invalid filter", err)
			}

			sess, err := opts.openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			n, err := sess.provider.Delete(commandContext(cmd), args[0], sel)
			if err != nil {
				return providerError("failed to delete tasks", err)
			}
			return opts.formatter(cmd).Success(changed{Action: "deleted", Count: n})
		},
	}

	opts.filter.register(cmd)

	return cmd
}

// NewTypeCommand creates the type command.
func NewTypeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := rootOpts

	return &cobra.Command{
		Use:   "type <address>",
		Short: "Print the MIME type of an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			mimeType, err := resource.NewRouter(cfg.Authority).Type(args[0])
			if err != nil {
				return providerError("failed to resolve type", err)
			}
			return opts.formatter(cmd).Success(mimeType)
		},
	}
}
