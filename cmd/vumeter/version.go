package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/tphakala/go-vumeter/internal/simdops"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and SIMD support",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "vumeter %s (%s, %s/%s)\nSIMD: %s\n",
				version, runtime.Version(), runtime.GOOS, runtime.GOARCH, simdops.CPUInfo())
			return err
		},
	}
}
