package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"coursebook/internal/app"
	"coursebook/internal/config"
)

func (c *CLI) newImportCmd() *cobra.Command {
	var headers []string
	var dataPath string
	cmd := &cobra.Command{
		Use:   "import FILE|URL...",
		Short: "Import JSON documents; each file's base name becomes its id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := app.ImportOptions{DataPath: dataPath, Headers: map[string]string{}}
			for _, h := range headers {
				k, v, ok := strings.Cut(h, ":")
				if !ok {
					return fmt.Errorf("header %q: expected \"Name: value\"", h)
				}
				opts.Headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
			}
			return c.withApp(nil, func(a *app.App) error {
				n, err := a.Import(cmd.Context(), args, opts)
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d of %d files\n", n, len(args))
				return err
			})
		},
	}
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "Request header for URL sources, \"Name: value\"")
	cmd.Flags().StringVar(&dataPath, "data-path", "", "Dot-separated path to the document inside a URL response")
	return cmd
}

func (c *CLI) newExportCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every document to <dir>/<id>.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mutate := func(cfg *config.Config) {
				if dir != "" {
					cfg.Export.Dir = dir
				}
			}
			return c.withApp(mutate, func(a *app.App) error {
				n, err := a.Export.ExportAll(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d documents\n", n)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Output directory, overrides export.dir")
	return cmd
}
