package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var (
	endpoint   string
	secureConn bool
	configPath string
	workspace  string
)

var rootCmd = &cobra.Command{
	Use:   "zkcli",
	Short: "Zkcli builds, updates and proves transitions of a zk-friendly merkle state tree",
}

// Init initiates commands
func Init() error {
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "localhost:10000", "zkmerkle server endpoint")
	rootCmd.PersistentFlags().BoolVar(&secureConn, "secure", false, "connect with TLS")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "configuration file, defaults apply when empty")
	rootCmd.PersistentFlags().StringVar(&workspace, "workspace", "", "directory relative paths resolve against")

	initCmd.Flags().BoolVar(&forceInit, "force", false, "replace an existing tree")
	showCmd.Flags().IntVar(&showWidth, "width", 8, "hex characters shown per node, 0 shows full values")
	transferCmd.Flags().StringVar(&witnessPath, "witness", "", "witness output, defaults to the circuit's Prover.toml")
	transferCmd.Flags().BoolVar(&proveAfter, "prove", false, "generate a proof after the transfer")
	transferCmd.Flags().BoolVar(&rawLeaves, "leaf", false, "values are leaves, do not hash them")
	updateCmd.Flags().BoolVar(&updateLeaf, "leaf", false, "VALUE is a 0x hex leaf, do not hash it")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(transferCmd)
	rootCmd.AddCommand(proveCmd)

	rootCmd.AddCommand(rootHashCmd)
	rootCmd.AddCommand(leafCmd)
	rootCmd.AddCommand(pathCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(rebuildCmd)

	return nil
}

// Execute executes command. An interrupt cancels running proofs.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
