// Command rolecycle previews the hero typewriter in a terminal, using the
// same roles and cadence the site streams to visitors.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/miki-714/portfolio/internal/content"
	"github.com/miki-714/portfolio/internal/typewriter"
)

var errLimitReached = errors.New("tick limit reached")

type options struct {
	contentFile string
	roles       []string
	timing      typewriter.Timing
	cursor      string
	ticks       int64
	plain       bool
}

func newRootCmd() *cobra.Command {
	opts := options{timing: typewriter.DefaultTiming}

	cmd := &cobra.Command{
		Use:   "rolecycle",
		Short: "Preview the hero role typewriter",
		Long: `Types, holds and deletes each hero role in turn, forever.

Roles come from --role flags, or from the hero section of a content file.
When stdout is not a terminal each frame is printed on its own line.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			roles, err := opts.resolveRoles()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			if opts.plain || !isTerminal(out) {
				cyc, err := typewriter.New(roles, typewriter.Options{Timing: opts.timing, Cursor: opts.cursor})
				if err != nil {
					return err
				}
				return runPlain(ctx, out, cyc, opts.ticks)
			}

			m, err := typewriter.NewMachine(roles, opts.timing)
			if err != nil {
				return err
			}
			p := tea.NewProgram(newModel(m, opts.cursor, opts.ticks), tea.WithContext(ctx), tea.WithOutput(out))
			if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return fmt.Errorf("run preview: %w", err)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.contentFile, "content", "c", "content.yaml", "content file to read hero roles from")
	f.StringArrayVarP(&opts.roles, "role", "r", nil, "role to cycle through (repeatable, overrides --content)")
	f.DurationVar(&opts.timing.Type, "type", opts.timing.Type, "delay before typing each character")
	f.DurationVar(&opts.timing.Hold, "hold", opts.timing.Hold, "delay before deleting a fully typed role")
	f.DurationVar(&opts.timing.Delete, "delete", opts.timing.Delete, "delay before deleting each character")
	f.DurationVar(&opts.timing.Pause, "pause", opts.timing.Pause, "delay before starting the next role")
	f.StringVar(&opts.cursor, "cursor", typewriter.DefaultCursor, "cursor glyph shown after the text")
	f.Int64VarP(&opts.ticks, "ticks", "n", 0, "stop after this many transitions (0 runs until interrupted)")
	f.BoolVar(&opts.plain, "plain", false, "print one frame per line even on a terminal")

	return cmd
}

func (o options) resolveRoles() ([]string, error) {
	if len(o.roles) > 0 {
		return o.roles, nil
	}
	site, err := content.Load(o.contentFile, nil)
	if err != nil {
		return nil, err
	}
	return site.Hero.Roles, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// runPlain prints every frame on its own line until ctx ends or limit
// transitions have been shown.
func runPlain(ctx context.Context, w io.Writer, cyc *typewriter.Cycler, limit int64) error {
	err := cyc.Run(ctx, func(f typewriter.Frame) error {
		if _, err := fmt.Fprintln(w, f.Text); err != nil {
			return err
		}
		if limit > 0 && f.Seq >= limit {
			return errLimitReached
		}
		return nil
	})
	if errors.Is(err, errLimitReached) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "rolecycle:", err)
		os.Exit(1)
	}
}
