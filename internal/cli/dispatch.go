package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/campaignkit/pkg/campaign"
	"github.com/matzehuels/campaignkit/pkg/errors"
	"github.com/matzehuels/campaignkit/pkg/recipient"
	"github.com/matzehuels/campaignkit/pkg/studio"
)

// dispatchCommand creates the dispatch command.
func (c *CLI) dispatchCommand() *cobra.Command {
	var (
		draftPath string
		channel   string
		subject   string
		body      string
		status    string
		ids       []string
		base      string
		logo      string
		auto      bool
		delay     time.Duration
		flags     designFlags
	)

	cmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Send a campaign to each recipient in turn",
		Long: `Dispatch opens a prefilled email or WhatsApp message for each selected
recipient, one at a time. The composed visual is copied to the clipboard
before each link opens so it can be pasted into the message.

Without --ids every recipient matching --status who can be reached on the
channel is selected. When the last recipient is visited the campaign is
archived.`,
		Example: `  campaignkit dispatch --channel email --subject "Winter sale" --body "20% off" --status VIP
  campaignkit dispatch --draft draft.toml --base photo.jpg --text "Winter sale"
  campaignkit dispatch --channel whatsapp --body "See you soon" --ids r1,r2 --auto`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.openStudio(ctx, nil)
			if err != nil {
				return err
			}
			defer st.Close()

			d := st.Draft()
			if draftPath != "" {
				if d, err = readDraft(draftPath); err != nil {
					return err
				}
			}
			fs := cmd.Flags()
			if fs.Changed("channel") {
				ch, err := campaign.ParseChannel(channel)
				if err != nil {
					return err
				}
				d.Channel = ch
			}
			if fs.Changed("subject") {
				d.Subject = subject
			}
			if fs.Changed("body") {
				d.Body = body
			}
			if fs.Changed("status") {
				d.TargetStatus = status
			}
			if d, err = st.SetDraft(d); err != nil {
				return err
			}

			settings, err := flags.apply(fs, st.Store.Settings())
			if err != nil {
				return err
			}
			if _, err := st.Store.SetSettings(settings); err != nil {
				return err
			}
			if logo != "" {
				if _, err := st.LoadLogo(ctx, logo); err != nil {
					return err
				}
			}
			if base != "" {
				if _, err := st.LoadBase(ctx, base); err != nil {
					return err
				}
				if _, err := st.Preview(ctx); err != nil {
					printToast(err)
				}
			}

			eligible, err := st.Eligible(ctx, d.TargetStatus)
			if err != nil {
				return err
			}
			selected, unreachable := selectRecipients(eligible, ids, d.Channel)
			for _, r := range unreachable {
				printWarning("%s has no %s, left out", r.Name(), contactField(d.Channel))
			}
			if len(selected) == 0 {
				return errors.New(errors.ErrCodeInvalidInput, "no reachable recipients with status %s", d.TargetStatus)
			}
			if _, err := st.StartDispatch(ctx, selected); err != nil {
				return err
			}

			if auto || !isTerminal(os.Stdin) {
				return runAuto(ctx, st, len(selected), delay)
			}
			return runInteractive(ctx, st, eligible)
		},
	}

	cmd.Flags().StringVar(&draftPath, "draft", "", "TOML draft file (from campaigns recall or generate copy)")
	cmd.Flags().StringVarP(&channel, "channel", "c", "", "channel: email or whatsapp")
	cmd.Flags().StringVarP(&subject, "subject", "s", "", "email subject")
	cmd.Flags().StringVarP(&body, "body", "b", "", "message body")
	cmd.Flags().StringVar(&status, "status", "", "only recipients with this status (ALL for everyone)")
	cmd.Flags().StringSliceVar(&ids, "ids", nil, "recipient ids, in dispatch order")
	cmd.Flags().StringVar(&base, "base", "", "base photo for the campaign visual")
	cmd.Flags().StringVarP(&logo, "logo", "l", "", "logo image")
	cmd.Flags().BoolVar(&auto, "auto", false, "advance without prompting")
	cmd.Flags().DurationVar(&delay, "delay", 2*time.Second, "pause between recipients with --auto")
	flags.register(cmd.Flags())

	return cmd
}

// selectRecipients picks the dispatch order. Explicit ids are used as given
// and validated by the sequencer; otherwise every recipient in list that is
// reachable on ch is selected and the rest are returned as unreachable.
func selectRecipients(list []recipient.Recipient, ids []string, ch campaign.Channel) (selected []string, unreachable []recipient.Recipient) {
	if len(ids) > 0 {
		return ids, nil
	}
	for _, r := range list {
		if r.HasContact(ch) {
			selected = append(selected, r.ID)
		} else {
			unreachable = append(unreachable, r)
		}
	}
	return selected, unreachable
}

func contactField(ch campaign.Channel) string {
	if ch == campaign.WhatsApp {
		return "phone number"
	}
	return "email address"
}

func runAuto(ctx context.Context, st *studio.Studio, total int, delay time.Duration) error {
	for {
		step, err := st.Advance(ctx)
		if err != nil {
			if ctx.Err() != nil {
				st.Abort()
				printWarning("Dispatch aborted")
			}
			return err
		}
		fmt.Println(stepLine(step, total))
		if step.Completed {
			printRecord(step.Record)
			return nil
		}
		select {
		case <-ctx.Done():
			st.Abort()
			printWarning("Dispatch aborted after %d of %d", step.Index+1, total)
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

func runInteractive(ctx context.Context, st *studio.Studio, list []recipient.Recipient) error {
	names := make(map[string]string, len(list))
	for _, r := range list {
		names[r.ID] = r.Name()
	}
	final, err := tea.NewProgram(NewDispatchModel(ctx, st.Sequencer, names)).Run()
	if err != nil {
		st.Abort()
		return errors.Wrap(errors.ErrCodeInternal, err, "dispatch ui")
	}
	m := final.(DispatchModel)
	switch {
	case m.Record != nil:
		printRecord(m.Record)
	case m.Aborted:
		printWarning("Dispatch aborted, nothing archived")
	}
	return nil
}

func printRecord(rec *campaign.Record) {
	if rec == nil {
		return
	}
	printSuccess("Campaign archived")
	printKeyValue("id", rec.ID)
	printKeyValue("title", rec.Title())
	printKeyValue("recipients", fmt.Sprintf("%d", rec.RecipientCount))
	printNewline()
	printNextStep("Reuse it later", appName+" campaigns recall "+rec.ID)
}
