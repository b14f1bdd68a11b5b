package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dshills/foldlayer/internal/app"
	"github.com/dshills/foldlayer/internal/config"
	"github.com/dshills/foldlayer/internal/document"
	"github.com/dshills/foldlayer/internal/fold"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "foldview",
		Short:         "Fold text files and inspect the result",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "folding configuration file (.toml, .yaml)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newRenderCmd(opts),
		newRegionsCmd(opts),
		newSearchCmd(opts),
		newExtractCmd(opts),
		newPasteCmd(opts),
		newWatchCmd(opts),
	)
	return root
}

// loadConfig reads the configuration file, if any, and applies the
// environment overrides.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if o.verbose {
		cfg.Logging.Level = zapcore.DebugLevel.String()
		cfg.Logging.Development = true
	}
	return cfg, cfg.Validate()
}

// session is a loaded file with its configured engine.
type session struct {
	app    *app.App
	view   *document.View
	logger *zap.Logger
}

func (o *rootOptions) open(path string) (*session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return openWith(cfg, path)
}

func openWith(cfg *config.Config, path string) (*session, error) {
	logger, err := app.NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	view := document.NewBufferFromString(string(data)).NewView()
	a, err := app.Build(cfg, view, app.Options{Logger: logger})
	if err != nil {
		return nil, err
	}
	return &session{app: a, view: view, logger: logger}, nil
}

func (s *session) Close() {
	s.app.Close()
	_ = s.logger.Sync()
}

func (s *session) render(w io.Writer) error {
	shown, err := s.app.Engine.Display(0, s.view.Buffer().Len())
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, shown)
	return err
}

func newRenderCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "render FILE",
		Short: "Print FILE as the folded view shows it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(args[0])
			if err != nil {
				return err
			}
			defer s.Close()
			return s.render(cmd.OutOrStdout())
		},
	}
}

func newRegionsCmd(opts *rootOptions) *cobra.Command {
	var specs []string
	cmd := &cobra.Command{
		Use:   "regions FILE",
		Short: "List the folded regions of FILE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			ids := make([]fold.SpecID, len(specs))
			for i, name := range specs {
				ids[i] = fold.SpecID(name)
			}
			regions, err := s.app.Engine.Regions(0, s.view.Buffer().Len(), ids...)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range regions {
				fmt.Fprintf(out, "%s\t%d\t%d\n", r.Spec, r.Range.Start, r.Range.End)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&specs, "spec", "s", nil, "only list these specs")
	return cmd
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var accept bool
	cmd := &cobra.Command{
		Use:   "search FILE PATTERN",
		Short: "Find PATTERN in FILE the way folded text is searched",
		Long: `Search lists every match the folds allow, with the folds each match
had to open. With --accept the last match stays revealed and the
resulting view is printed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			text := s.view.Buffer()
			err = s.app.Engine.WithSearch(func(ss *fold.SearchSession) error {
				from, found := 0, false
				for from <= text.Len() {
					match, ok, err := ss.FindNext(args[1], from)
					if err != nil {
						return err
					}
					if !ok {
						break
					}
					found = true
					fmt.Fprintf(out, "%s\t%q", match, text.TextRange(match.Start, match.End))
					for _, r := range ss.Pending() {
						fmt.Fprintf(out, "\t%s%s", r.Spec, r.Range)
					}
					fmt.Fprintln(out)
					from = max(match.End, match.Start+1)
				}
				if accept && found {
					ss.Accept()
				}
				return nil
			})
			if err != nil || !accept {
				return err
			}
			fmt.Fprintln(out, "---")
			return s.render(out)
		},
	}
	cmd.Flags().BoolVar(&accept, "accept", false, "keep the last match revealed and print the view")
	return cmd
}

func parseRange(startArg, endArg string) (int, int, error) {
	start, err := strconv.Atoi(startArg)
	if err != nil {
		return 0, 0, fmt.Errorf("start: %w", err)
	}
	end, err := strconv.Atoi(endArg)
	if err != nil {
		return 0, 0, fmt.Errorf("end: %w", err)
	}
	return start, end, nil
}

func newExtractCmd(opts *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "extract FILE START END",
		Short: "Write [START, END) of FILE as a portable clip",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := parseRange(args[1], args[2])
			if err != nil {
				return err
			}
			s, err := opts.open(args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			clip, err := s.app.Engine.Extract(start, end)
			if err != nil {
				return err
			}
			data, err := clip.MarshalBinary()
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(output, data, 0o644)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "clip file (default stdout)")
	return cmd
}

func newPasteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paste FILE CLIP POS",
		Short: "Insert a clip into FILE at POS and print the view",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("pos: %w", err)
			}
			data, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			var clip fold.Clip
			if err := clip.UnmarshalBinary(data); err != nil {
				return err
			}
			s, err := opts.open(args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.app.Engine.InsertClip(pos, clip); err != nil {
				return err
			}
			return s.render(cmd.OutOrStdout())
		},
	}
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch FILE",
		Short: "Render FILE again whenever the configuration changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.configPath == "" {
				return errors.New("watch needs --config")
			}
			s, err := opts.open(args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			if err := s.render(out); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			err = config.Watch(ctx, opts.configPath, func(cfg *config.Config, err error) {
				if err == nil {
					err = cfg.ApplyEnv()
				}
				if err == nil {
					err = s.app.Reload(cfg)
				}
				if err != nil {
					s.logger.Error("reload failed", zap.Error(err))
					return
				}
				fmt.Fprintln(out, "---")
				if err := s.render(out); err != nil {
					s.logger.Error("render failed", zap.Error(err))
				}
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
