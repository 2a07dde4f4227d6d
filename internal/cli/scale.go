package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fairyhunter13/recipe-box-service/internal/serving"
)

var (
	scaleMin int
	scaleMax int
)

var scaleCmd = &cobra.Command{
	Use:   "scale [amount] [base-servings] [servings]",
	Short: "Rescale an ingredient amount",
	Long: `Rescales an ingredient amount written for base-servings to servings.
The amount accepts decimals, fractions ("1/2"), mixed numbers ("1 1/2") and
vulgar fractions ("½"). The result is printed with two decimals.`,
	Args: cobra.ExactArgs(3),
	RunE: runScale,
}

func init() {
	scaleCmd.Flags().IntVar(&scaleMin, "min", serving.DefaultMin, "smallest selectable servings")
	scaleCmd.Flags().IntVar(&scaleMax, "max", serving.DefaultMax, "largest selectable servings")
	rootCmd.AddCommand(scaleCmd)
}

func runScale(cmd *cobra.Command, args []string) error {
	amount, err := serving.ParseAmount(args[0])
	if err != nil {
		return err
	}
	base, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("base servings %q: %w", args[1], err)
	}
	n, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("servings %q: %w", args[2], err)
	}
	st, err := serving.NewState(base, scaleMin, scaleMax)
	if err != nil {
		return err
	}
	if err := st.Set(n); err != nil {
		return err
	}
	cmd.Println(serving.Format(serving.Scale(amount, st.Base(), st.Current())))
	return nil
}
