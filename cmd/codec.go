package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agentic-research/clsprobe/internal/codec"
)

var (
	encryptOut string
	decryptOut string
)

var encryptCmd = &cobra.Command{
	Use:   "encrypt [reference]",
	Short: "Seal a plaintext reference classification",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := cfg.Codec()
		if err != nil {
			return err
		}
		src, err := absPath(args[0])
		if err != nil {
			return err
		}
		dst, err := absPath(encryptOut)
		if err != nil {
			return err
		}
		if err := c.EncryptFile(hostFS(), src, dst); err != nil {
			return err
		}
		logger.Info("reference sealed", zap.String("source", src), zap.String("output", dst))
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", encryptOut)
		return nil
	},
}

var decryptCmd = &cobra.Command{
	Use:   "decrypt [sealed]",
	Short: "Open a sealed reference file",
	Long: `Decrypts a sealed reference file. The plaintext is written to the
--output file, or to stdout when no output is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := cfg.Codec()
		if err != nil {
			return err
		}
		src, err := absPath(args[0])
		if err != nil {
			return err
		}
		fs := hostFS()
		plain, err := c.DecryptFile(fs, src)
		if err != nil {
			return err
		}
		if decryptOut == "" {
			_, err = cmd.OutOrStdout().Write(plain)
			return err
		}
		dst, err := absPath(decryptOut)
		if err != nil {
			return err
		}
		return writeFile(fs, dst, plain)
	},
}

func init() {
	encryptCmd.Flags().StringVarP(&encryptOut, "output", "o", codec.DefaultReferencePath, "Where to write the sealed file")
	decryptCmd.Flags().StringVarP(&decryptOut, "output", "o", "", "Where to write the plaintext (default stdout)")
	rootCmd.AddCommand(encryptCmd, decryptCmd)
}
