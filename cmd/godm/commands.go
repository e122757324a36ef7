package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vinicius-lino-figueiredo/godm/domain"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

func registerPingCmd(ctx context.Context, env *environment, rootCmd *cobra.Command) {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "ping",
		Short: "Check the database can be reached",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			_, err := env.command(ctx, domain.Document{"ping": 1})
			if err != nil {
				return err
			}
			fmt.Fprintln(env.stdout, "ok")
			return nil
		},
	})
}

func registerCountCmd(ctx context.Context, env *environment, rootCmd *cobra.Command) {
	var skip, limit int64
	countCmd := &cobra.Command{
		Use:   "count COLLECTION [QUERY]",
		Short: "Count the documents matching QUERY",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) (err error) {
			query, err := queryArg(args, 1)
			if err != nil {
				return err
			}
			db, err := env.open(ctx)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, db.Close(ctx)) }()

			opts := domain.CountOptions{Skip: skip, Limit: limit}
			n, err := db.Collection(args[0]).Count(ctx, query, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(env.stdout, n)
			return nil
		},
	}
	countCmd.Flags().Int64Var(&skip, "skip", 0, "documents to skip")
	countCmd.Flags().Int64Var(&limit, "limit", 0, "maximum count, 0 for no limit")
	rootCmd.AddCommand(countCmd)
}

func registerFindCmd(ctx context.Context, env *environment, rootCmd *cobra.Command) {
	var (
		skip, limit int64
		sort        []string
		fields      []string
	)
	findCmd := &cobra.Command{
		Use:   "find COLLECTION [QUERY]",
		Short: "Print the documents matching QUERY as YAML",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) (err error) {
			query, err := queryArg(args, 1)
			if err != nil {
				return err
			}
			opts := domain.NewFindOptions(
				domain.WithFindSkip(skip),
				domain.WithFindLimit(limit),
				domain.WithFindSort(sortOf(sort)),
				domain.WithFindProjection(projectionOf(fields)),
			)

			db, err := env.open(ctx)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, db.Close(ctx)) }()

			cur, err := db.Collection(args[0]).Find(ctx, query, opts)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, cur.Close(ctx)) }()

			var docs []any
			for cur.Next(ctx) {
				doc, err := cur.Current()
				if err != nil {
					return err
				}
				docs = append(docs, printable(doc))
			}
			if err := cur.Err(); err != nil {
				return err
			}
			return env.print(docs)
		},
	}
	findCmd.Flags().Int64Var(&skip, "skip", 0, "documents to skip")
	findCmd.Flags().Int64Var(&limit, "limit", 0, "maximum documents, 0 for no limit")
	findCmd.Flags().StringSliceVar(&sort, "sort", nil, "sort fields, prefixed with - for descending order")
	findCmd.Flags().StringSliceVar(&fields, "fields", nil, "fields to print")
	rootCmd.AddCommand(findCmd)
}

func registerInsertCmd(ctx context.Context, env *environment, rootCmd *cobra.Command) {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "insert COLLECTION DOCUMENT...",
		Short: "Insert YAML documents, generating missing ids",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(_ *cobra.Command, args []string) (err error) {
			docs := make([]domain.Document, 0, len(args)-1)
			for n := range args[1:] {
				doc, err := queryArg(args, n+1)
				if err != nil {
					return err
				}
				docs = append(docs, doc)
			}

			db, err := env.open(ctx)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, db.Close(ctx)) }()

			for _, doc := range docs {
				if doc[domain.DefaultPrimaryKey] == nil {
					doc[domain.DefaultPrimaryKey] = db.Driver().NewID()
				}
			}
			res, err := db.Collection(args[0]).Insert(ctx, docs, db.DefaultWriteConcern())
			if err != nil {
				return err
			}
			ids := make([]any, len(docs))
			for n, doc := range docs {
				ids[n] = printable(doc[domain.DefaultPrimaryKey])
			}
			if !res.Acknowledged {
				fmt.Fprintln(env.stderr, "write not acknowledged")
			}
			return env.print(ids)
		},
	})
}

func registerRemoveCmd(ctx context.Context, env *environment, rootCmd *cobra.Command) {
	var justOne bool
	removeCmd := &cobra.Command{
		Use:   "remove COLLECTION QUERY",
		Short: "Remove the documents matching QUERY",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) (err error) {
			query, err := queryArg(args, 1)
			if err != nil {
				return err
			}
			db, err := env.open(ctx)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, db.Close(ctx)) }()

			opts := domain.RemoveOptions{WriteConcern: db.DefaultWriteConcern(), JustOne: justOne}
			res, err := db.Collection(args[0]).Remove(ctx, query, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(env.stdout, res.Deleted)
			return nil
		},
	}
	removeCmd.Flags().BoolVar(&justOne, "one", false, "remove at most one document")
	rootCmd.AddCommand(removeCmd)
}

func registerCommandCmd(ctx context.Context, env *environment, rootCmd *cobra.Command) {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "command COMMAND",
		Short: "Run a database command written in YAML and print the response",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cmd, err := queryArg(args, 0)
			if err != nil {
				return err
			}
			res, err := env.command(ctx, cmd)
			if err != nil {
				return err
			}
			return env.print(printable(res))
		},
	})
}

// command runs cmd in its own connection.
func (e *environment) command(ctx context.Context, cmd domain.Document) (res domain.Document, err error) {
	db, err := e.open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { err = multierr.Append(err, db.Close(ctx)) }()
	return db.RunCommand(ctx, cmd)
}

func (e *environment) print(v any) error {
	enc := yaml.NewEncoder(e.stdout)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// queryArg parses args[n] as a YAML mapping. A missing argument is an empty
// query.
func queryArg(args []string, n int) (domain.Document, error) {
	doc := domain.Document{}
	if n >= len(args) {
		return doc, nil
	}
	if err := yaml.Unmarshal([]byte(args[n]), &doc); err != nil {
		return nil, fmt.Errorf("parsing %q: %w", args[n], err)
	}
	return doc, nil
}

func sortOf(fields []string) domain.Sort {
	var s domain.Sort
	for _, f := range fields {
		order := int64(1)
		if name, ok := strings.CutPrefix(f, "-"); ok {
			f, order = name, -1
		}
		s = append(s, domain.SortName{Key: f, Order: order})
	}
	return s
}

func projectionOf(fields []string) domain.Document {
	if len(fields) == 0 {
		return nil
	}
	p := domain.Document{}
	for _, f := range fields {
		p[f] = 1
	}
	return p
}

type hexer interface{ Hex() string }

// printable converts values YAML cannot represent well into strings.
func printable(v any) any {
	switch t := v.(type) {
	case domain.Document:
		res := make(map[string]any, len(t))
		for k, item := range t {
			res[k] = printable(item)
		}
		return res
	case []any:
		res := make([]any, len(t))
		for n, item := range t {
			res[n] = printable(item)
		}
		return res
	case hexer:
		return t.Hex()
	case fmt.Stringer:
		return t.String()
	}
	return v
}
