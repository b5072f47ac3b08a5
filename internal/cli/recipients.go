package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/campaignkit/pkg/campaign"
	"github.com/matzehuels/campaignkit/pkg/recipient"
)

// recipientsCommand creates the recipients command.
func (c *CLI) recipientsCommand() *cobra.Command {
	var (
		status  string
		channel string
	)

	cmd := &cobra.Command{
		Use:   "recipients",
		Short: "List recipients and whether they can be reached",
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, err := campaign.ParseChannel(channel)
			if err != nil {
				return err
			}
			st, err := c.openStudio(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer st.Close()

			all, err := st.Registry.List(cmd.Context())
			if err != nil {
				return err
			}
			list := recipient.Eligible(all, status)
			if len(list) == 0 {
				printInfo("No recipients with status %s", status)
				if statuses := recipient.Statuses(all); len(statuses) > 0 {
					printDetail("Known statuses: %s", strings.Join(statuses, ", "))
				}
				return nil
			}
			fmt.Println(recipientTable(list, ch))
			reachable := 0
			for _, r := range list {
				if r.HasContact(ch) {
					reachable++
				}
			}
			printDetail("%d of %d reachable by %s", reachable, len(list), strings.ToLower(string(ch)))
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", campaign.StatusAll, "only recipients with this status")
	cmd.Flags().StringVarP(&channel, "channel", "c", "email", "channel to check contacts for")
	return cmd
}

func recipientTable(list []recipient.Recipient, ch campaign.Channel) string {
	rows := make([][]string, 0, len(list))
	for _, r := range list {
		contact := r.Contact(ch)
		if contact == "" {
			contact = "—"
		}
		rows = append(rows, []string{r.ID, r.Name(), r.Status, contact})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Name", "Status", "Contact").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if !list[row].HasContact(ch) {
				return listDimStyle
			}
			if col == 1 {
				return StyleValue
			}
			return lipgloss.NewStyle()
		}).
		Render()
}
