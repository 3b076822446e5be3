package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/get-eventually/eventcore/aggregate"
	"github.com/get-eventually/eventcore/command"
	"github.com/get-eventually/eventcore/internal/branch"
	"github.com/get-eventually/eventcore/partition"
	"github.com/get-eventually/eventcore/version"
)

// BranchView is the output of the branchctl commands.
type BranchView struct {
	ID               uuid.UUID       `json:"id"`
	RootPartitionKey string          `json:"root_partition_key"`
	Name             string          `json:"name,omitempty"`
	Country          string          `json:"country,omitempty"`
	Version          version.Version `json:"version"`
	Events           []string        `json:"events,omitempty"`
}

func viewOf(agg aggregate.Aggregate) BranchView {
	view := BranchView{
		ID:               agg.PartitionKeys.AggregateID,
		RootPartitionKey: agg.PartitionKeys.RootPartitionKey,
		Version:          agg.Version,
	}

	if b, ok := agg.Payload.(branch.Branch); ok {
		view.Name = b.BranchName
		view.Country = b.Country
	}

	return view
}

func responseView(resp command.Response) BranchView {
	view := viewOf(resp.Aggregate)
	view.ID = resp.PartitionKeys.AggregateID
	view.RootPartitionKey = resp.PartitionKeys.RootPartitionKey
	view.Version = resp.Version

	for _, evt := range resp.Events {
		view.Events = append(view.Events, evt.Name())
	}

	return view
}

func writeView(w io.Writer, format string, view BranchView) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(view)
	}

	fmt.Fprintf(w, "id:       %s\n", view.ID)
	fmt.Fprintf(w, "tenant:   %s\n", view.RootPartitionKey)
	fmt.Fprintf(w, "name:     %s\n", view.Name)
	fmt.Fprintf(w, "country:  %s\n", view.Country)
	fmt.Fprintf(w, "version:  %d\n", view.Version)

	for _, name := range view.Events {
		fmt.Fprintf(w, "event:    %s\n", name)
	}

	return nil
}

func parseID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid branch id %q: %w", arg, err)
	}

	return id, nil
}

// NewRegisterCommand creates the register command.
func NewRegisterCommand(opts *RootOptions) *cobra.Command {
	var name, country, id string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new branch",
		Example: `  branchctl register --name "Tokyo" --country JP
  branchctl register --name "Tokyo" --country JP --id 0190f1a6-6c5e-7a8b-9c0d-1e2f3a4b5c6d`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := branch.RegisterBranch{
				BranchName:       name,
				Country:          country,
				RootPartitionKey: opts.rootPartition(),
			}

			if id != "" {
				parsed, err := parseID(id)
				if err != nil {
					return err
				}

				c.ID = parsed
			}

			resp, err := opts.App.Executor.Execute(cmd.Context(), c)
			if err != nil {
				return err
			}

			return writeView(cmd.OutOrStdout(), opts.Format, responseView(resp))
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "name of the branch")
	cmd.Flags().StringVar(&country, "country", "", "country of the branch")
	cmd.Flags().StringVar(&id, "id", "", "id of the branch, generated when empty")

	return cmd
}

// NewRenameCommand creates the rename command.
func NewRenameCommand(opts *RootOptions) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "rename <branch-id>",
		Short: "Rename an existing branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			resp, err := opts.App.Executor.Execute(cmd.Context(), branch.ChangeBranchName{
				BranchID:         id,
				NameToChange:     name,
				RootPartitionKey: opts.rootPartition(),
			})
			if err != nil {
				return err
			}

			return writeView(cmd.OutOrStdout(), opts.Format, responseView(resp))
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new name of the branch")

	return cmd
}

// NewChangeCountryCommand creates the change-country command.
func NewChangeCountryCommand(opts *RootOptions) *cobra.Command {
	var country string

	cmd := &cobra.Command{
		Use:   "change-country <branch-id>",
		Short: "Move an existing branch to another country",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			resp, err := branch.ExecuteChangeBranchCountry(cmd.Context(), opts.App.Executor, branch.ChangeBranchCountry{
				BranchID:         id,
				Country:          country,
				RootPartitionKey: opts.rootPartition(),
			})
			if err != nil {
				return err
			}

			return writeView(cmd.OutOrStdout(), opts.Format, responseView(resp))
		},
	}

	cmd.Flags().StringVar(&country, "country", "", "new country of the branch")

	return cmd
}

// NewShowCommand creates the show command.
func NewShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <branch-id>",
		Short: "Show the current state of a branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			keys := partition.Existing(id, branch.Projector{}.Name(),
				partition.WithRootPartitionKey(opts.rootPartition()))

			agg, err := opts.App.Repository.Load(cmd.Context(), keys, branch.Projector{})
			if err != nil {
				return err
			}

			if agg.IsEmpty() {
				return fmt.Errorf("branch %s not found", id)
			}

			return writeView(cmd.OutOrStdout(), opts.Format, viewOf(agg))
		},
	}
}
