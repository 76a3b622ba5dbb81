package main

import (
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-mixgen/internal/audiofile"
	"github.com/cwbudde/algo-mixgen/spectral"
)

func newBandsCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "bands",
		Short:       "List the frequency bands used to group clips",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0, len(spectral.Bands()))
			for _, r := range spectral.Bands() {
				rows = append(rows, []string{
					r.Band.String(),
					displayName(r.Band.String()),
					formatHz(r.LoHz),
					formatHz(r.HiHz),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Band", "Name", "Low (Hz)", "High (Hz)"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}
}

func newInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "inspect <wav...>",
		Short:       "Show per-band spectral energy and the dominant band of WAV files",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			classifier, err := spectral.New(spectral.DefaultConfig())
			if err != nil {
				return err
			}
			bands := spectral.Bands()
			headers := []string{"File", "Rate"}
			aligns := []columnAlignment{alignLeft, alignRight}
			for _, r := range bands {
				headers = append(headers, displayName(r.Band.String())+" %")
				aligns = append(aligns, alignRight)
			}
			headers = append(headers, "Dominant")
			aligns = append(aligns, alignLeft)

			rows := make([][]string, 0, len(args))
			for _, path := range args {
				x, sr, err := audiofile.ReadWAVMono(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				energies, err := classifier.Energies(x, sr)
				if err != nil {
					return fmt.Errorf("analyze %s: %w", path, err)
				}
				var total float64
				for _, e := range energies {
					total += e
				}
				row := []string{path, strconv.Itoa(sr)}
				for _, e := range energies {
					share := 0.0
					if total > 0 {
						share = 100 * e / total
					}
					row = append(row, fmt.Sprintf("%.1f", share))
				}
				row = append(row, spectral.Dominant(energies).String())
				rows = append(rows, row)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
			return nil
		},
	}
	return cmd
}

func formatHz(hz float64) string {
	if hz == math.Trunc(hz) {
		return strconv.FormatFloat(hz, 'f', 0, 64)
	}
	return strconv.FormatFloat(hz, 'f', 1, 64)
}
