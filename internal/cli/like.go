package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/fairyhunter13/recipe-box-service/internal/like"
)

var (
	likeServer  string
	likeTimeout time.Duration
)

var likeCmd = &cobra.Command{
	Use:   "like [recipe-id]",
	Short: "Toggle the like on a recipe",
	Long: `Opens a visitor session on a running server and toggles the like on a
recipe once. Prints the glyph and like count the server reports.`,
	Args: cobra.ExactArgs(1),
	RunE: runLike,
}

func init() {
	likeCmd.Flags().StringVarP(&likeServer, "server", "s", "http://localhost:8080", "base URL of the recipe server")
	likeCmd.Flags().DurationVar(&likeTimeout, "timeout", 10*time.Second, "request timeout")
	rootCmd.AddCommand(likeCmd)
}

func runLike(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("recipe id %q must be a positive integer", args[0])
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), likeTimeout)
	defer cancel()

	client := like.NewClient(likeServer, nil)
	if _, err := client.Session(ctx); err != nil {
		return err
	}
	reg := like.NewRegistry(client)
	st, err := reg.Toggle(ctx, id)
	if err != nil {
		return err
	}
	cmd.Printf("%s %d\n", like.Glyph(st), st.Count)
	return nil
}
