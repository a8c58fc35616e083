package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/krew-solutions/ascetic-docquery-go/docquery/config"
	"github.com/krew-solutions/ascetic-docquery-go/docquery/engine"
	filter "github.com/krew-solutions/ascetic-docquery-go/docquery/filter/domain"
	"github.com/krew-solutions/ascetic-docquery-go/docquery/filter/domain/model"
	"github.com/krew-solutions/ascetic-docquery-go/docquery/filter/domain/parser"
	"github.com/krew-solutions/ascetic-docquery-go/docquery/option"
	"github.com/krew-solutions/ascetic-docquery-go/docquery/query"
)

var errInvalidQuery = errors.New("query is invalid")

type filterFlags struct {
	where string
	query string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.where, "where", "", `filter expression, e.g. 'age >= 18 && "go" in tags'`)
	cmd.Flags().StringVar(&f.query, "query", "", `filter as a JSON query, e.g. '{"age": {"$gte": 18}}'`)
	cmd.MarkFlagsMutuallyExclusive("where", "query")
}

func (f *filterFlags) parse() (filter.Filter, error) {
	switch {
	case f.where != "":
		return parser.ParseExpression(f.where)
	case f.query != "":
		return parser.ParseJSON([]byte(f.query))
	}
	return nil, errors.New("one of --where or --query is required")
}

// --- Cobra root and commands ---

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "docquery",
		Short:         "Filter JSON documents with composite queries",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMatchCmd(), newCanonicalCmd(), newValidateCmd())
	return root
}

func newMatchCmd() *cobra.Command {
	var (
		flags      filterFlags
		collection string
		configPath string
	)
	cmd := &cobra.Command{
		Use:   "match [FILE]",
		Short: "Print the NDJSON documents that match the filter",
		Long: "Reads documents of the form {\"key\": \"users/u1\", \"data\": {...}}, one per line,\n" +
			"from FILE or standard input and prints the matching lines in input order.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Log, cmd.ErrOrStderr())

			f, err := flags.parse()
			if err != nil {
				return err
			}
			in := cmd.InOrStdin()
			if len(args) == 1 {
				file, err := os.Open(args[0])
				if err != nil {
					return errors.Wrapf(err, "cannot open %s", args[0])
				}
				defer file.Close()
				in = file
			}
			lines, docs, err := readDocuments(in)
			if err != nil {
				return err
			}

			executor, err := engine.NewExecutor(cfg.Engine, logger, nil)
			if err != nil {
				return err
			}
			defer executor.Close()

			matched, err := executor.Run(cmd.Context(), query.New(collection, f), docs)
			if err != nil {
				return err
			}
			index := make(map[*model.Document]int, len(docs))
			for i, doc := range docs {
				index[doc] = i
			}
			out := cmd.OutOrStdout()
			for _, doc := range matched {
				fmt.Fprintln(out, lines[index[doc]])
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&collection, "collection", "", "only match documents of this collection")
	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML configuration file")
	return cmd
}

func newCanonicalCmd() *cobra.Command {
	var flags filterFlags
	cmd := &cobra.Command{
		Use:   "canonical",
		Short: "Print the canonical id of the filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := flags.parse()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), f.CanonicalID())
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newValidateCmd() *cobra.Command {
	var flags filterFlags
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the filter against the query rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := flags.parse()
			if err != nil {
				return err
			}
			err = query.Validate(f)
			if err == nil {
				field := option.Map(f.FirstInequalityField(), model.FieldPath.String).UnwrapOr("none")
				fmt.Fprintf(cmd.OutOrStdout(), "ok, inequality field: %s\n", field)
				return nil
			}
			var merr *multierror.Error
			if errors.As(err, &merr) {
				for _, e := range merr.Errors {
					fmt.Fprintln(cmd.OutOrStdout(), e)
				}
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), err)
			}
			return errInvalidQuery
		},
	}
	flags.register(cmd)
	return cmd
}

type documentLine struct {
	Key  string         `json:"key"`
	Data map[string]any `json:"data"`
}

// readDocuments returns the non-blank input lines and their decoded documents.
func readDocuments(r io.Reader) ([]string, []*model.Document, error) {
	var (
		lines []string
		docs  []*model.Document
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var dl documentLine
		if err := json.Unmarshal([]byte(line), &dl); err != nil {
			return nil, nil, errors.Wrapf(err, "line %d", n)
		}
		if dl.Key == "" {
			return nil, nil, errors.Errorf("line %d: document has no key", n)
		}
		lines = append(lines, line)
		docs = append(docs, model.NewDocument(dl.Key, dl.Data))
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "cannot read documents")
	}
	return lines, docs, nil
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
