package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"coursebook/internal/app"
	"coursebook/internal/domain"
	"coursebook/internal/layout"
	"coursebook/internal/tree"
	"coursebook/internal/view"
)

type layoutOptions struct {
	viewer   bool
	expand   []string
	collapse []string
	docID    string
	blockID  string
}

func (c *CLI) newLayoutCmd() *cobra.Command {
	var opts layoutOptions
	cmd := &cobra.Command{
		Use:   "layout [FILE]",
		Short: "Print the positioned graph of a mind map",
		Long: "Lays out a mind map read from FILE (or stdin when FILE is - or omitted).\n" +
			"The input is either mind map attrs ({\"rootNode\":...}) or a bare tree node.\n" +
			"With --doc and --block the mind map is loaded from storage instead.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.docID != "" || opts.blockID != "" {
				if opts.docID == "" || opts.blockID == "" {
					return fmt.Errorf("--doc and --block must be given together")
				}
				return c.withApp(nil, func(a *app.App) error {
					mm, err := a.MindMaps.Attrs(opts.docID, opts.blockID)
					if err != nil {
						return err
					}
					return writeLayout(cmd.OutOrStdout(), mm.RootNode, a.Engine, opts)
				})
			}

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			root, err := readTree(in)
			if err != nil {
				return err
			}
			return writeLayout(cmd.OutOrStdout(), root, layout.NewEngine(cfg.Layout), opts)
		},
	}
	cmd.Flags().BoolVar(&opts.viewer, "viewer", false, "Start from the viewer default (every non-leaf node collapsed)")
	cmd.Flags().StringSliceVar(&opts.expand, "expand", nil, "Node ids to expand")
	cmd.Flags().StringSliceVar(&opts.collapse, "collapse", nil, "Node ids to collapse")
	cmd.Flags().StringVar(&opts.docID, "doc", "", "Document id to load the mind map from")
	cmd.Flags().StringVar(&opts.blockID, "block", "", "Mind map block id inside --doc")
	return cmd
}

// readTree decodes mind map attrs or a bare tree node and checks ids.
func readTree(r io.Reader) (domain.TreeNode, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.TreeNode{}, fmt.Errorf("read mind map: %w", err)
	}
	var peek struct {
		RootNode *domain.TreeNode `json:"rootNode"`
	}
	if err := json.Unmarshal(data, &peek); err != nil {
		return domain.TreeNode{}, fmt.Errorf("decode mind map: %w", err)
	}
	root := domain.TreeNode{}
	if peek.RootNode != nil {
		root = *peek.RootNode
	} else if err := json.Unmarshal(data, &root); err != nil {
		return domain.TreeNode{}, fmt.Errorf("decode mind map: %w", err)
	}
	if err := tree.Validate(root); err != nil {
		return domain.TreeNode{}, err
	}
	return root, nil
}

func writeLayout(w io.Writer, root domain.TreeNode, engine *layout.Engine, opts layoutOptions) error {
	sess := view.NewSession(root, !opts.viewer, engine)
	sess.Collapse(opts.collapse...)
	sess.Expand(opts.expand...)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sess.Graph())
}
