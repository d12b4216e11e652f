package cmd

import (
	"fmt"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/spf13/cobra"

	"github.com/agentic-research/clsprobe/internal/classtree"
	"github.com/agentic-research/clsprobe/internal/service"
)

var treeEncrypted bool

var treeCmd = &cobra.Command{
	Use:   "tree [file]",
	Short: "Print the classification tree of a result file",
	Long: `Builds the classification tree of a result file and prints it as an
indented outline. With --encrypted the file is treated as a sealed
reference; without an argument the configured reference is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, sealed := cfg.Reference, true
		if len(args) == 1 {
			name, sealed = args[0], treeEncrypted
		}
		path, err := absPath(name)
		if err != nil {
			return err
		}

		fs := hostFS()
		loader := newLoader(fs)
		var tree *classtree.Tree
		if sealed {
			c, err := cfg.Codec()
			if err != nil {
				return err
			}
			tree, err = service.LoadReference(fs, c, loader, path)
			if err != nil {
				return err
			}
		} else {
			tree, err = loader.Load(path)
			if err != nil {
				return err
			}
		}

		w := cmd.OutOrStdout()
		if tree.Len() == 0 {
			fmt.Fprintln(w, "(empty)")
			return nil
		}
		fmt.Fprintln(w, tree.String())
		fmt.Fprintf(w, "%d fields\n", tree.Len())
		return nil
	},
}

func init() {
	treeCmd.Flags().BoolVarP(&treeEncrypted, "encrypted", "e", false, "The file is a sealed reference")
	rootCmd.AddCommand(treeCmd)
}

func writeFile(fs billy.Basic, name string, data []byte) error {
	if err := util.WriteFile(fs, name, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
