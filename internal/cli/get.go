package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/rivecq/internal/harness"
	"github.com/roach88/rivecq/internal/rive"
)

// GetOptions holds flags for the get command.
type GetOptions struct {
	*RootOptions
	Type      string
	ViewModel string
	Instance  string
	Artboard  string
	Blank     bool
}

// GetResult is a property value read from a scene.
type GetResult struct {
	Path  string `json:"path"`
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "get <scene> <path>",
		Short: "Read a view model property",
		Long: `Create a view model instance and read one property from it.

The instance comes from --view-model or from the default view model of
--artboard. --instance names an instance; without it the default instance
is used, or a blank one with --blank. Nested properties use slash paths.

Exit codes:
  0 - Value read
  1 - The property is missing or has another type
  2 - Command error (invalid flags, scene not found, etc.)

Examples:
  rivecq get testdata/scenes/hero.yaml hp --type number --view-model Hero --instance Ada
  rivecq get testdata/scenes/hero.yaml weapon/gem/shine --type color --artboard Main`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd.Context(), opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Type, "type", "string", "property type (string|number|boolean|color|enum)")
	cmd.Flags().StringVar(&opts.ViewModel, "view-model", "", "view model name")
	cmd.Flags().StringVar(&opts.Instance, "instance", "", "instance name (default: the default instance)")
	cmd.Flags().StringVar(&opts.Artboard, "artboard", "", "use this artboard's default view model")
	cmd.Flags().BoolVar(&opts.Blank, "blank", false, "read from a blank instance")
	cmd.Flags().StringVar(&rootOpts.Resume, "resume", "", "append to this journal session instead of starting one")
	cmd.MarkFlagsMutuallyExclusive("view-model", "artboard")
	cmd.MarkFlagsMutuallyExclusive("instance", "blank")

	return cmd
}

func runGet(ctx context.Context, opts *GetOptions, path, prop string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	out := newFormatter(opts.RootOptions, cmd)

	if opts.ViewModel == "" && opts.Artboard == "" {
		return out.Fail(ExitCommandError, ErrCodeInvalidArg, "one of --view-model or --artboard is required", nil)
	}
	if opts.Type == "trigger" {
		return out.Fail(ExitCommandError, ErrCodeInvalidArg, "triggers have no value to read", nil)
	}

	e, err := newEnv(opts.RootOptions, out.GetErrWriter())
	if err != nil {
		return startError(out, err)
	}
	defer e.Close()

	w, err := e.open(ctx, path, "get "+prop)
	if err != nil {
		return sceneError(out, err)
	}
	out.Session = w.sessionID()
	if out.Session != "" {
		out.VerboseLog("journal session %s", out.Session)
	}

	value, err := read(ctx, w.file, opts, prop)
	if closeErr := w.Close(ctx); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		return out.Fail(ExitFailure, ErrCodeReadFailed, fmt.Sprintf("failed to read %s", prop), err)
	}

	result := GetResult{Path: prop, Type: opts.Type, Value: value}
	return out.Render(result, func(w io.Writer) {
		fmt.Fprintf(w, "%s = %v\n", prop, value)
	})
}

func read(ctx context.Context, f *rive.File, opts *GetOptions, prop string) (any, error) {
	vmi, artboard, err := harness.CreateInstance(ctx, f, harness.InstanceSpec{
		ViewModel: opts.ViewModel,
		Artboard:  opts.Artboard,
		Name:      opts.Instance,
		Blank:     opts.Blank,
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		vmi.Close()
		if artboard != nil {
			artboard.Close()
		}
	}()

	value, err := harness.Read(ctx, vmi, opts.Type, prop)
	if err != nil {
		return nil, err
	}
	if c, ok := value.(rive.Color); ok {
		return c.String(), nil
	}
	return value, nil
}
