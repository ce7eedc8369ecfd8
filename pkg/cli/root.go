package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	Version = "0.1.0"
	rootCmd *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "sitcompare",
		Short: "Cross-method sensitive-data discovery comparison",
		Long:  "sitcompare ingests sensitive-data detection exports produced by independent scanning methods, normalizes them, and reports cross-method agreement, distributions and variance anomalies.",
	}

	// Global flags
	rootCmd.PersistentFlags().StringP("output", "o", "./reports", "Output directory")
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))

	// Environment variable support (SITCOMP_OUTPUT, etc.)
	viper.SetEnvPrefix("SITCOMP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// Subcommands
	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
