package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/UnknownOlympus/busopt/internal/dataset"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultOutput = "silicon_valley_stop_points.csv"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "gendata",
		Short: "Generates a synthetic bus stop candidate dataset",
		Long: `gendata writes a CSV of candidate bus stop locations around Silicon Valley with
population density, traffic flow and existing stop information, ready to be
clustered by the optimization API.`,
		SilenceUsage: true,
		PreRunE: func(_ *cobra.Command, _ []string) error {
			v.SetEnvPrefix("BUSOPT_GEN")
			v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
			v.AutomaticEnv()

			if cfgFile == "" {
				return nil
			}
			v.SetConfigFile(cfgFile)
			if err := v.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read config file: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			seed := v.GetInt64("seed")
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			rows := v.GetInt("rows")
			if rows <= 0 {
				rows = dataset.DefaultRows
			}
			output := v.GetString("output")

			if err := writeDataset(output, rows, seed); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Dataset with %d rows saved to %s (seed %d)\n", rows, output, seed)
			return nil
		},
	}

	cmd.Flags().StringVar(&cfgFile, "config", "", "optional config file with rows, seed and output keys")
	cmd.Flags().Int("rows", dataset.DefaultRows, "Number of candidate stops to generate")
	cmd.Flags().Int64("seed", 0, "Random seed, 0 picks one from the clock")
	cmd.Flags().String("output", defaultOutput, "Output CSV file path")
	cobra.CheckErr(v.BindPFlags(cmd.Flags()))

	return cmd
}

func writeDataset(path string, rows int, seed int64) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	w := bufio.NewWriter(file)
	if err = dataset.WriteCSV(w, dataset.Generate(rows, seed)); err != nil {
		return err
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return nil
}
