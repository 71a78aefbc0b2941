// Command verify-offload runs the offload sequence on the simulator with
// chosen fences removed, and reports both the hazards the lint finds and
// whether the product still comes out right.
package main

import (
	"fmt"
	"os"

	"github.com/sarchlab/spadverify/config"
	"github.com/sarchlab/spadverify/harness"
	"github.com/sarchlab/spadverify/matrix"
	"github.com/sarchlab/spadverify/spad"
	"github.com/sarchlab/spadverify/verify"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

func main() {
	var (
		dim  int
		skip []int
	)

	cmd := &cobra.Command{
		Use:           "verify-offload",
		Short:         "Lint and simulate the offload sequence with fences removed",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := config.Default()
			c.Dim = dim
			if err := c.Validate(); err != nil {
				return err
			}

			p := config.MakePlatformBuilder().WithConfig(c).Build("Platform")

			layout, err := spad.Plan(c.Geometry(), c.Dim)
			if err != nil {
				return err
			}

			weight := matrix.NewOperand(c.Dim)
			input := matrix.NewOperand(c.Dim)
			output := matrix.NewResult(c.Dim)
			expected := matrix.NewResult(c.Dim)
			matrix.Generate(weight, c.WeightSeed)
			matrix.Generate(input, c.InputSeed)
			if err := matrix.Multiply(input, weight, expected); err != nil {
				return err
			}

			rec := verify.NewRecorder(p.Driver)
			harness.Offload(&verify.FenceDropper{Port: rec, Skip: skip},
				layout, weight, input, output)

			issues := verify.RunLint(rec.Commands())
			verify.WriteReport(cmd.OutOrStdout(), rec.Commands(), issues)

			if matrix.Compare(output, expected) {
				fmt.Fprintln(cmd.OutOrStdout(), "Product: correct")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Product: WRONG")
			}

			if len(issues) > 0 {
				return fmt.Errorf("offload sequence has %d hazards", len(issues))
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&dim, "dim", 16, "matrix dimension")
	cmd.Flags().IntSliceVar(&skip, "skip-fence", nil,
		"indices of the fences to drop, counted from 0")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
