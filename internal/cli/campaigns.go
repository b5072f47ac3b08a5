package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/campaignkit/pkg/campaign"
	"github.com/matzehuels/campaignkit/pkg/errors"
)

// campaignsCommand creates the campaigns command.
func (c *CLI) campaignsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "campaigns",
		Aliases: []string{"archive"},
		Short:   "Browse and recall archived campaigns",
	}

	cmd.AddCommand(c.campaignsListCommand())
	cmd.AddCommand(c.campaignsShowCommand())
	cmd.AddCommand(c.campaignsRecallCommand())

	return cmd
}

func (c *CLI) campaignsListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived campaigns, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStudio(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer st.Close()

			list, err := st.Campaigns(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				printInfo("No campaigns archived yet")
				return nil
			}
			if limit > 0 && len(list) > limit {
				list = list[:limit]
			}
			fmt.Println(campaignTable(list))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "show at most n campaigns (0 for all)")
	return cmd
}

func campaignTable(list []campaign.Record) string {
	rows := make([][]string, 0, len(list))
	for _, rec := range list {
		visual := "—"
		if rec.AssetURL != "" {
			visual = iconSuccess
		}
		rows = append(rows, []string{
			rec.ID,
			rec.Timestamp.Local().Format("Jan 2 15:04"),
			strings.ToLower(string(rec.Channel)),
			truncate(rec.Title(), 40),
			rec.TargetStatus,
			fmt.Sprintf("%d", rec.RecipientCount),
			visual,
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Sent", "Channel", "Title", "Status", "Sent to", "Visual").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0 || col == 1:
				return listDimStyle
			case col == 3:
				return StyleValue
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

func (c *CLI) campaignsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show an archived campaign",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStudio(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer st.Close()

			rec, err := st.Archive.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Println(StyleTitle.Render(rec.Title()))
			printKeyValue("id", rec.ID)
			printKeyValue("sent", rec.Timestamp.Local().Format("2006-01-02 15:04:05"))
			printKeyValue("channel", string(rec.Channel))
			printKeyValue("status", rec.TargetStatus)
			printKeyValue("recipients", fmt.Sprintf("%d", rec.RecipientCount))
			if rec.Subject != "" {
				printKeyValue("subject", rec.Subject)
			}
			printNewline()
			fmt.Println(rec.Body)
			return nil
		},
	}
}

func (c *CLI) campaignsRecallCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "recall ID",
		Short: "Restore an archived campaign's draft and visual",
		Long: `Recall writes the campaign's message to draft.toml and its visual, if
any, to an image file in the output directory. Pass the draft to
"dispatch --draft" to send the campaign again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.openStudio(ctx, nil)
			if err != nil {
				return err
			}
			defer st.Close()

			rec, err := st.Recall(ctx, args[0])
			if rec.ID == "" {
				return err
			}
			draftPath := filepath.Join(dir, "draft.toml")
			if werr := writeDraft(draftPath, st.Draft()); werr != nil {
				return werr
			}
			printSuccess("Recalled %s", StyleHighlight.Render(rec.Title()))
			printFile(draftPath)
			if err != nil {
				// The draft is restored even when the visual is not.
				printToast(err)
				return nil
			}

			snap := st.Store.Snapshot()
			if snap.HasBase() {
				path := filepath.Join(dir, "visual"+extensionFor(snap.Base.MIMEType))
				if err := os.WriteFile(path, snap.Base.Data, 0o644); err != nil {
					return errors.Wrap(errors.ErrCodeStorage, err, "write %s", path)
				}
				printFile(path)
			}
			printNewline()
			printNextStep("Send it again", appName+" dispatch --draft "+draftPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "output directory")
	return cmd
}

func extensionFor(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	return ".jpg"
}
