package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/campaignkit/pkg/campaign"
	"github.com/matzehuels/campaignkit/pkg/compose"
	"github.com/matzehuels/campaignkit/pkg/design"
	"github.com/matzehuels/campaignkit/pkg/errors"
	"github.com/matzehuels/campaignkit/pkg/generate"
)

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"gen"},
		Short:   "Generate campaign copy and images with the configured AI provider",
	}

	cmd.AddCommand(c.generateCopyCommand())
	cmd.AddCommand(c.generateImageCommand())

	return cmd
}

func (c *CLI) generateCopyCommand() *cobra.Command {
	var (
		channel string
		tone    string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "copy BRIEF",
		Short: "Write a subject and body from a short brief",
		Example: `  campaignkit generate copy "20% off winter boots this weekend" --tone playful
  campaignkit generate copy "VIP preview night" -c whatsapp -o draft.toml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, err := campaign.ParseChannel(channel)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			st, err := c.openStudio(ctx, offline)
			if err != nil {
				return err
			}
			defer st.Close()

			if _, err := st.SetDraft(campaign.Draft{Channel: ch}); err != nil {
				return err
			}
			prog := newProgress(c.Logger)
			out, err := spin(ctx, "Writing copy...", func(ctx context.Context) (generate.Copy, error) {
				return st.GenerateCopy(ctx, args[0], tone)
			})
			if err != nil {
				return err
			}
			prog.done("Generated copy with " + st.Generator.Name())

			if out.Subject != "" {
				fmt.Println(StyleTitle.Render(out.Subject))
			}
			fmt.Println(out.Body)

			if output != "" {
				if err := writeDraft(output, st.Draft()); err != nil {
					return err
				}
				printNewline()
				printFile(output)
				printNextStep("Send it", appName+" dispatch --draft "+output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&channel, "channel", "c", "email", "channel: email or whatsapp")
	cmd.Flags().StringVar(&tone, "tone", "", "tone of voice (e.g. playful, formal)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "also write the draft to this TOML file")
	return cmd
}

func (c *CLI) generateImageCommand() *cobra.Command {
	var (
		aspect    string
		reference string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "image PROMPT",
		Short: "Generate a base photo from a prompt",
		Example: `  campaignkit generate image "snowy mountain cabin at dusk" --aspect 16:9
  campaignkit generate image "same scene, in spring" --reference photo.jpg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.openStudio(ctx, offline)
			if err != nil {
				return err
			}
			defer st.Close()

			if reference != "" {
				if _, err := st.LoadBase(ctx, reference); err != nil {
					return err
				}
			}
			prog := newProgress(c.Logger)
			snap, err := spin(ctx, "Generating image...", func(ctx context.Context) (design.Snapshot, error) {
				return st.GenerateBase(ctx, args[0], aspect, reference != "")
			})
			if err != nil {
				return err
			}
			if output == "" {
				output = compose.ArtifactName(args[0], time.Now())
				output = output[:len(output)-len(".jpg")] + extensionFor(snap.Base.MIMEType)
			}
			if err := os.WriteFile(output, snap.Base.Data, 0o644); err != nil {
				return errors.Wrap(errors.ErrCodeStorage, err, "write %s", output)
			}
			prog.done("Generated image with " + st.Generator.Name())
			printFile(output)
			printNewline()
			printNextStep("Add a caption", appName+" compose "+output+" --text \"...\"")
			return nil
		},
	}

	cmd.Flags().StringVar(&aspect, "aspect", generate.AspectSquare, "aspect ratio: 1:1, 16:9 or 9:16")
	cmd.Flags().StringVar(&reference, "reference", "", "reference image to restyle")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")
	return cmd
}
