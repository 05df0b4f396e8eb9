package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/ibhelper/helper"
	"github.com/s0up4200/ibhelper/inkbunny"
)

var detailsOpts helper.DetailsOptions

var detailsCmd = &cobra.Command{
	Use:   "details ID...",
	Short: "Show full records for submissions",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDetails,
}

func init() {
	detailsCmd.Flags().BoolVar(&detailsOpts.Description, "description", false, "include the description")
	detailsCmd.Flags().BoolVar(&detailsOpts.Pools, "pools", false, "include pools")
	detailsCmd.Flags().BoolVar(&detailsOpts.Writing, "writing", false, "include the story text")
}

func runDetails(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	h, _, closeSession, err := openSession(ctx, client)
	if err != nil {
		return err
	}
	defer closeSession()

	resp, err := h.Details(ctx, detailsOpts, args...)
	if err != nil {
		return err
	}

	if len(resp.Submissions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No submissions found.")
		return nil
	}
	for _, sub := range resp.Submissions {
		printDetails(cmd.OutOrStdout(), sub)
	}
	return nil
}

func printDetails(w io.Writer, sub inkbunny.DetailedSubmission) {
	fmt.Fprintf(w, "\n%s (#%s)\n", sub.Title, sub.SubmissionID)
	fmt.Fprintln(w, strings.Repeat("-", 80))
	fmt.Fprintf(w, "  Artist: %s\n", sub.Username)
	fmt.Fprintf(w, "  Rating: %s  Type: %s  Pages: %d\n", sub.RatingName, sub.TypeName, sub.PageCount)
	if sub.CreateDatetime != "" {
		fmt.Fprintf(w, "  Posted: %s\n", sub.CreateDatetime)
	}
	if len(sub.Keywords) > 0 {
		names := make([]string, 0, len(sub.Keywords))
		for _, kw := range sub.Keywords {
			names = append(names, kw.KeywordName)
		}
		fmt.Fprintf(w, "  Keywords: %s\n", strings.Join(names, ", "))
	}
	for _, pool := range sub.Pools {
		fmt.Fprintf(w, "  Pool: %s\n", pool.Name)
	}
	if sub.Description != "" {
		fmt.Fprintf(w, "\n%s\n", sub.Description)
	}
	if sub.Writing != "" {
		fmt.Fprintf(w, "\n%s\n", sub.Writing)
	}
}

var ratingCmd = &cobra.Command{
	Use:   "rating",
	Short: "Show which content classes the session may see",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, login, closeSession, err := openSession(cmd.Context(), client)
		if err != nil {
			return err
		}
		defer closeSession()

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "User: %s (id %s)\n", h.Username(), login.UserID)
		fmt.Fprintf(w, "Mask: %s\n", login.Rating.Mask())
		fmt.Fprintf(w, "  Nudity:          %s\n", boolToStatus(login.Rating.Nudity))
		fmt.Fprintf(w, "  Violence:        %s\n", boolToStatus(login.Rating.Violence))
		fmt.Fprintf(w, "  Sexual themes:   %s\n", boolToStatus(login.Rating.SexualThemes))
		fmt.Fprintf(w, "  Strong violence: %s\n", boolToStatus(login.Rating.StrongViolence))
		return nil
	},
}

func boolToStatus(b bool) string {
	if b {
		return "Enabled"
	}
	return "Disabled"
}
