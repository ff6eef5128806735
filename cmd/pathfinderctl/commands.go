package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"pathfinder-backend/application/commands"
	"pathfinder-backend/application/queries"
	"pathfinder-backend/domain/core/valueobjects"
	"pathfinder-backend/infrastructure/di"
)

// containerLoader builds the dependency container for one command run
type containerLoader func(ctx context.Context) (*di.Container, func(), error)

type cli struct {
	load containerLoader

	userID  string
	graphID string
	asJSON  bool
}

func newRootCmd(load containerLoader) *cobra.Command {
	c := &cli{load: load}

	root := &cobra.Command{
		Use:          "pathfinderctl",
		Short:        "Administer the pathfinder learning roadmap backend",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVar(&c.asJSON, "json", false, "print results as JSON")

	root.AddCommand(
		c.migrateCmd(),
		c.userCmd(),
		c.graphCmd(),
		c.importCmd(),
		c.hierarchyCmd(),
		c.roadmapCmd(),
		c.tokenCmd(),
	)
	return root
}

// withContainer loads the container around fn
func (c *cli) withContainer(cmd *cobra.Command, fn func(ctx context.Context, ct *di.Container) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ct, cleanup, err := c.load(ctx)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(ctx, ct)
}

func (c *cli) print(w io.Writer, v interface{}, text string) error {
	if c.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(w, text)
	return err
}

func requireFlags(cmd *cobra.Command, names ...string) {
	for _, n := range names {
		_ = cmd.MarkFlagRequired(n)
	}
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the storage schema if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withContainer(cmd, func(ctx context.Context, ct *di.Container) error {
				if err := ct.Store.Ping(ctx); err != nil {
					return err
				}
				return c.print(cmd.OutOrStdout(), map[string]string{"status": "ready", "driver": ct.Config.StorageDriver},
					fmt.Sprintf("%s schema ready", ct.Config.StorageDriver))
			})
		},
	}
}

func (c *cli) userCmd() *cobra.Command {
	var username, email, password string
	user := &cobra.Command{Use: "user", Short: "Manage accounts"}

	create := &cobra.Command{
		Use:   "create",
		Short: "Register an account and print its access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withContainer(cmd, func(ctx context.Context, ct *di.Container) error {
				result, err := ct.Auth.Register(ctx, commands.RegisterUserCommand{
					Username: username,
					Email:    email,
					Password: password,
				})
				if err != nil {
					return err
				}
				return c.print(cmd.OutOrStdout(), result,
					fmt.Sprintf("user_id=%s\naccess_token=%s", result.UserID, result.AccessToken))
			})
		},
	}
	create.Flags().StringVar(&username, "username", "", "account name")
	create.Flags().StringVar(&email, "email", "", "account email")
	create.Flags().StringVar(&password, "password", "", "account password")
	requireFlags(create, "username", "email", "password")

	user.AddCommand(create)
	return user
}

func (c *cli) graphCmd() *cobra.Command {
	var name string
	graph := &cobra.Command{Use: "graph", Short: "Manage knowledge graphs"}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create an empty graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withContainer(cmd, func(ctx context.Context, ct *di.Container) error {
				g, err := ct.GraphStore.CreateGraph(ctx, valueobjects.UserID(c.userID), name)
				if err != nil {
					return err
				}
				return c.print(cmd.OutOrStdout(), queries.NewGraphDTO(*g), g.ID.String())
			})
		},
	}
	create.Flags().StringVar(&c.userID, "user", "", "owner user id")
	create.Flags().StringVar(&name, "name", "", "graph name")
	requireFlags(create, "user")

	list := &cobra.Command{
		Use:   "list",
		Short: "List a user's graphs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withContainer(cmd, func(ctx context.Context, ct *di.Container) error {
				graphs, err := ct.GraphStore.ListGraphs(ctx, valueobjects.UserID(c.userID))
				if err != nil {
					return err
				}
				dtos := make([]queries.GraphDTO, 0, len(graphs))
				lines := make([]string, 0, len(graphs))
				for _, g := range graphs {
					dtos = append(dtos, queries.NewGraphDTO(*g))
					lines = append(lines, fmt.Sprintf("%s\t%s", g.ID, g.Name))
				}
				return c.print(cmd.OutOrStdout(), dtos, strings.Join(lines, "\n"))
			})
		},
	}
	list.Flags().StringVar(&c.userID, "user", "", "owner user id")
	requireFlags(list, "user")

	del := &cobra.Command{
		Use:   "delete",
		Short: "Delete a graph with its topics and edges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withContainer(cmd, func(ctx context.Context, ct *di.Container) error {
				err := ct.GraphStore.DeleteGraph(ctx, commands.DeleteGraphCommand{UserID: c.userID, GraphID: c.graphID})
				if err != nil {
					return err
				}
				return c.print(cmd.OutOrStdout(), map[string]string{"deleted": c.graphID}, "deleted "+c.graphID)
			})
		},
	}
	c.graphFlags(del)

	graph.AddCommand(create, list, del)
	return graph
}

func (c *cli) graphFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.userID, "user", "", "owner user id")
	cmd.Flags().StringVar(&c.graphID, "graph", "", "graph id")
	requireFlags(cmd, "user", "graph")
}

func readJSONFile(path string, v interface{}) error {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *cli) importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: `Upsert topics and connections from a JSON file ("-" reads stdin)`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in commands.ImportTopicsCommand
			if err := readJSONFile(args[0], &in); err != nil {
				return err
			}
			in.UserID, in.GraphID, in.Source = c.userID, c.graphID, "cli"

			return c.withContainer(cmd, func(ctx context.Context, ct *di.Container) error {
				result, err := ct.GraphStore.Ingest(ctx, in)
				if err != nil {
					return err
				}
				text := fmt.Sprintf("topics=%d connections=%d created_topics=%d skipped=%d",
					result.ImportedTopics, result.ImportedConnections, result.CreatedTopics, len(result.SkippedConnections))
				for _, s := range result.SkippedConnections {
					text += fmt.Sprintf("\nskipped %q -> %q: %s", s.FromTopic, s.ToTopic, s.Reason)
				}
				return c.print(cmd.OutOrStdout(), result, text)
			})
		},
	}
	c.graphFlags(cmd)
	return cmd
}

func (c *cli) hierarchyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hierarchy FILE",
		Short: "Apply a prerequisite -> dependent JSON object to a graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var prereqs valueobjects.PrerequisiteMap
			if err := readJSONFile(args[0], &prereqs); err != nil {
				return err
			}

			return c.withContainer(cmd, func(ctx context.Context, ct *di.Container) error {
				result, err := ct.GraphStore.ApplyHierarchy(ctx, commands.BuildHierarchyCommand{
					UserID:        c.userID,
					GraphID:       c.graphID,
					Source:        "cli",
					Prerequisites: prereqs,
				})
				if err != nil {
					return err
				}
				return c.print(cmd.OutOrStdout(), result,
					fmt.Sprintf("topics=%d created_topics=%d created_connections=%d",
						len(result.Topics), result.CreatedTopics, result.CreatedConnections))
			})
		},
	}
	c.graphFlags(cmd)
	return cmd
}

func (c *cli) roadmapCmd() *cobra.Command {
	var start, target string
	cmd := &cobra.Command{
		Use:   "roadmap",
		Short: "Print every learning path from one topic to another",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withContainer(cmd, func(ctx context.Context, ct *di.Container) error {
				result, err := ct.Roadmaps.FindRoadmap(ctx, queries.FindRoadmapQuery{
					UserID:  c.userID,
					GraphID: c.graphID,
					Start:   start,
					Target:  target,
				})
				if err != nil {
					return err
				}

				lines := make([]string, 0, len(result.Paths)+1)
				for _, p := range result.Paths {
					lines = append(lines, strings.Join(p, " -> "))
				}
				if len(lines) == 0 {
					lines = append(lines, "no path")
				}
				if result.Truncated {
					lines = append(lines, "(truncated)")
				}
				return c.print(cmd.OutOrStdout(), result, strings.Join(lines, "\n"))
			})
		},
	}
	c.graphFlags(cmd)
	cmd.Flags().StringVar(&start, "start", "", "topic to start from")
	cmd.Flags().StringVar(&target, "target", "", "topic to reach")
	requireFlags(cmd, "start", "target")
	return cmd
}

func (c *cli) tokenCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for an existing user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withContainer(cmd, func(ctx context.Context, ct *di.Container) error {
				user, err := ct.Auth.Me(ctx, valueobjects.UserID(c.userID))
				if err != nil {
					return err
				}
				if email == "" {
					email = user.Email
				}
				token, err := ct.Tokens.GenerateToken(user.ID.String(), email, []string{"user"})
				if err != nil {
					return err
				}
				return c.print(cmd.OutOrStdout(), map[string]string{"access_token": token}, token)
			})
		},
	}
	cmd.Flags().StringVar(&c.userID, "user", "", "user id")
	cmd.Flags().StringVar(&email, "email", "", "email claim, defaults to the account email")
	requireFlags(cmd, "user")
	return cmd
}
