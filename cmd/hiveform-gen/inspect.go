package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"hiveform-gen/internal/pipeline"
	"hiveform-gen/internal/resolve"
)

// containerView is the JSON form of one container.
type containerView struct {
	Location string              `json:"location"`
	Context  string              `json:"context"`
	Kind     resolve.ContextKind `json:"kind"`
}

// inspectView is the JSON output of inspect.
type inspectView struct {
	RunID      string          `json:"runId"`
	Sources    int             `json:"sources"`
	Containers []containerView `json:"containers"`
	Forms      []resolve.Form  `json:"forms"`
}

func newInspectCmd(opts *rootOptions) *cobra.Command {
	var (
		asJSON bool
		dump   bool
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List form containers and resolved fields without writing",
		Long: `Resolve the project and print every form container with its location and
context, followed by the fields attributed to each context.

Use --json for machine-readable output or --dump for a raw dump of the
resolved registry.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}

			p, err := pipeline.New(cfg, logger)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			report, err := p.Analyze(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			switch {
			case dump:
				_, err = fmt.Fprint(out, spew.Sdump(report.Resolution.Registry.Forms()))
			case asJSON:
				err = writeInspectJSON(out, cfg.Root, report)
			default:
				err = writeInspectText(out, cfg.Root, report)
			}

			if err != nil {
				return err
			}

			return logDiagnostics(logger, report.Diagnostics)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&dump, "dump", false, "Dump the resolved registry")

	return cmd
}

func containerViews(root string, report *pipeline.Report) []containerView {
	views := make([]containerView, 0, len(report.Resolution.Containers))

	for _, c := range report.Resolution.Containers {
		loc := c.Loc
		loc.File = relPath(root, loc.File)

		views = append(views, containerView{
			Location: loc.String(),
			Context:  c.Context.ID,
			Kind:     c.Context.Kind,
		})
	}

	return views
}

func writeInspectJSON(w io.Writer, root string, report *pipeline.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(inspectView{
		RunID:      report.RunID.String(),
		Sources:    len(report.Sources),
		Containers: containerViews(root, report),
		Forms:      report.Resolution.Registry.Forms(),
	})
}

func writeInspectText(w io.Writer, root string, report *pipeline.Report) error {
	views := containerViews(root, report)

	if _, err := fmt.Fprintf(w, "Found %d form container(s) in %d file(s):\n", len(views), len(report.Sources)); err != nil {
		return err
	}

	for _, v := range views {
		if _, err := fmt.Fprintf(w, "  %s  %s (%s)\n", v.Location, v.Context, v.Kind); err != nil {
			return err
		}
	}

	for _, form := range report.Resolution.Registry.Forms() {
		if _, err := fmt.Fprintf(w, "\n%s:\n", form.Context.ID); err != nil {
			return err
		}

		for _, f := range form.Fields {
			mark := ""
			if f.Optional {
				mark = "?"
			}

			if _, err := fmt.Fprintf(w, "  %s%s\n", f.Name, mark); err != nil {
				return err
			}
		}
	}

	return nil
}

// relPath shortens path relative to root when possible.
func relPath(root, path string) string {
	if root == "" {
		return path
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return path
	}

	rel, err := filepath.Rel(abs, path)
	if err != nil {
		return path
	}

	return filepath.ToSlash(rel)
}
