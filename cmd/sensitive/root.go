package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"community/pkg/sensitive"
)

var errBannedWords = errors.New("banned words found")

type options struct {
	wordsPath   string
	wordsURL    string
	replacement string
	verbose     bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "sensitive",
		Short: "Filter banned words out of text",
		Long: `sensitive masks banned words the same way the community server does.

Symbols placed between the letters of a banned word do not hide it, so
"g-a-m-b-l-e" is masked just like "gamble".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.verbose {
				log.SetLevel(log.DebugLevel)
			}
		},
	}

	root.PersistentFlags().StringVarP(&opts.wordsPath, "words", "w", "", "path to the banned words list (.txt, .json, .toml, .yaml)")
	root.PersistentFlags().StringVar(&opts.wordsURL, "words-url", "", "URL of the banned words list")
	root.PersistentFlags().StringVarP(&opts.replacement, "replacement", "r", sensitive.DefaultReplacement, "marker written in place of a banned word")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(newFilterCmd(opts))
	root.AddCommand(newCheckCmd(opts))

	return root
}

func newFilterCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "filter [file...]",
		Short: "Print files or stdin with banned words masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := opts.filter(cmd.Context())
			if err != nil {
				return err
			}

			return eachInput(cmd, args, func(name string, r io.Reader) error {
				data, err := io.ReadAll(r)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", name, err)
				}
				_, err = io.WriteString(cmd.OutOrStdout(), f.Filter(string(data)))
				return err
			})
		},
	}
}

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check [file...]",
		Short: "Report lines containing banned words",
		Long: `check prints every line of the input that contains a banned word and
exits with status 1 if there was any.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := opts.filter(cmd.Context())
			if err != nil {
				return err
			}

			found := 0
			err = eachInput(cmd, args, func(name string, r io.Reader) error {
				sc := bufio.NewScanner(r)
				for line := 1; sc.Scan(); line++ {
					masked, n := f.Replace(sc.Text())
					if n == 0 {
						continue
					}
					found += n
					fmt.Fprintf(cmd.OutOrStdout(), "%s:%d: %s\n", name, line, masked)
				}
				return sc.Err()
			})
			if err != nil {
				return err
			}

			if found > 0 {
				return fmt.Errorf("%w: %d", errBannedWords, found)
			}
			return nil
		},
	}
}

// filter loads the word list. Unlike the server, the CLI refuses to run
// with a list it could not load.
func (o *options) filter(ctx context.Context) (*sensitive.Filter, error) {
	var src sensitive.WordSource
	switch {
	case o.wordsURL != "":
		src = sensitive.HTTPSource{URL: o.wordsURL}
	case o.wordsPath != "":
		src = sensitive.FileSource{Path: o.wordsPath}
	default:
		return nil, errors.New("either --words or --words-url is required")
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	f := sensitive.Load(ctx, src, sensitive.WithReplacement(o.replacement))
	if f.Status() != sensitive.StatusReady {
		return nil, f.Err()
	}
	log.Debugf("[sensitive] %d banned words loaded", f.Words())
	return f, nil
}

// eachInput calls fn for every named file, or for stdin when there are none.
func eachInput(cmd *cobra.Command, args []string, fn func(name string, r io.Reader) error) error {
	if len(args) == 0 {
		return fn("-", cmd.InOrStdin())
	}

	for _, path := range args {
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		err = fn(path, file)
		file.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
