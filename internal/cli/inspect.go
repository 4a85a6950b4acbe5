package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rivecq/internal/rive"
)

// InspectResult describes everything a scene defines.
type InspectResult struct {
	Scene      string          `json:"scene"`
	Artboards  []ArtboardInfo  `json:"artboards"`
	ViewModels []ViewModelInfo `json:"view_models"`
	Enums      []EnumInfo      `json:"enums"`
}

// ArtboardInfo describes one artboard.
type ArtboardInfo struct {
	Name          string   `json:"name"`
	StateMachines []string `json:"state_machines"`
	ViewModel     string   `json:"view_model,omitempty"`
	Instance      string   `json:"instance,omitempty"`
}

// ViewModelInfo describes one view model.
type ViewModelInfo struct {
	Name       string         `json:"name"`
	Properties []PropertyInfo `json:"properties"`
	Instances  []string       `json:"instances"`
}

// PropertyInfo describes one property definition.
type PropertyInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	MetaData string `json:"meta_data,omitempty"`
}

// EnumInfo describes one enum.
type EnumInfo struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <scene>",
		Short: "List what a scene defines",
		Long: `Load a scene and list its artboards, view models and enums.

The scene is a local .yaml or .cue file, or an http(s) URL. Every listing
is a round trip through the command queue.

Examples:
  rivecq inspect testdata/scenes/hero.yaml
  rivecq inspect https://example.com/hero.yaml --cache ./downloads.db
  rivecq inspect testdata/scenes/hero.cue --format json
  rivecq inspect testdata/scenes/hero.yaml --journal ./runs.db --resume <session>`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.Context(), rootOpts, args[0], cmd)
		},
	}
	cmd.Flags().StringVar(&rootOpts.Resume, "resume", "", "append to this journal session instead of starting one")
	return cmd
}

func runInspect(ctx context.Context, opts *RootOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	out := newFormatter(opts, cmd)

	e, err := newEnv(opts, out.GetErrWriter())
	if err != nil {
		return startError(out, err)
	}
	defer e.Close()

	w, err := e.open(ctx, path, "inspect "+path)
	if err != nil {
		return sceneError(out, err)
	}
	out.Session = w.sessionID()

	result, err := inspect(ctx, w.file)
	if closeErr := w.Close(ctx); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		return out.Fail(ExitFailure, ErrCodeSceneLoad, "failed to inspect scene", err)
	}
	result.Scene = path

	return out.Render(result, func(w io.Writer) { printInspect(w, result) })
}

// inspect queries every listing the file supports.
func inspect(ctx context.Context, f *rive.File) (InspectResult, error) {
	result := InspectResult{
		Artboards:  []ArtboardInfo{},
		ViewModels: []ViewModelInfo{},
		Enums:      []EnumInfo{},
	}

	artboards, err := f.ArtboardNames(ctx)
	if err != nil {
		return result, fmt.Errorf("list artboards: %w", err)
	}
	for _, name := range artboards {
		info, err := inspectArtboard(ctx, f, name)
		if err != nil {
			return result, err
		}
		result.Artboards = append(result.Artboards, info)
	}

	viewModels, err := f.ViewModelNames(ctx)
	if err != nil {
		return result, fmt.Errorf("list view models: %w", err)
	}
	for _, name := range viewModels {
		props, err := f.Properties(ctx, name)
		if err != nil {
			return result, fmt.Errorf("properties of %s: %w", name, err)
		}
		instances, err := f.InstanceNames(ctx, name)
		if err != nil {
			return result, fmt.Errorf("instances of %s: %w", name, err)
		}
		vm := ViewModelInfo{Name: name, Properties: []PropertyInfo{}, Instances: instances}
		for _, p := range props {
			vm.Properties = append(vm.Properties, PropertyInfo{Name: p.Name, Type: p.Type.String(), MetaData: p.MetaData})
		}
		result.ViewModels = append(result.ViewModels, vm)
	}

	enums, err := f.Enums(ctx)
	if err != nil {
		return result, fmt.Errorf("list enums: %w", err)
	}
	for _, en := range enums {
		result.Enums = append(result.Enums, EnumInfo{Name: en.Name, Values: en.Values})
	}
	return result, nil
}

// inspectArtboard creates the artboard to ask for its state machines and
// default view model. An artboard without a default view model is not an
// error.
func inspectArtboard(ctx context.Context, f *rive.File, name string) (ArtboardInfo, error) {
	a, err := f.CreateArtboard(ctx, name)
	if err != nil {
		return ArtboardInfo{}, fmt.Errorf("artboard %s: %w", name, err)
	}
	defer a.Close()

	machines, err := a.StateMachineNames(ctx)
	if err != nil {
		return ArtboardInfo{}, fmt.Errorf("state machines of %s: %w", name, err)
	}
	info := ArtboardInfo{Name: name, StateMachines: machines}

	vm, inst, err := f.DefaultViewModelInfo(ctx, a)
	switch {
	case err == nil:
		info.ViewModel, info.Instance = vm, inst
	case !rive.HasCode(err, rive.ErrCodeArtboard):
		return ArtboardInfo{}, fmt.Errorf("default view model of %s: %w", name, err)
	}
	return info, nil
}

func printInspect(w io.Writer, r InspectResult) {
	fmt.Fprintf(w, "Scene: %s\n", r.Scene)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Artboards ===")
	for _, a := range r.Artboards {
		fmt.Fprintf(w, "  %s\n", a.Name)
		fmt.Fprintf(w, "    state machines: %s\n", list(a.StateMachines))
		if a.ViewModel != "" {
			fmt.Fprintf(w, "    default: %s/%s\n", a.ViewModel, a.Instance)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== View Models ===")
	for _, vm := range r.ViewModels {
		fmt.Fprintf(w, "  %s\n", vm.Name)
		for _, p := range vm.Properties {
			fmt.Fprintf(w, "    %s: %s\n", p.Name, p.Type)
		}
		fmt.Fprintf(w, "    instances: %s\n", list(vm.Instances))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Enums ===")
	if len(r.Enums) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, en := range r.Enums {
		fmt.Fprintf(w, "  %s: %s\n", en.Name, strings.Join(en.Values, ", "))
	}
}

func list(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}
