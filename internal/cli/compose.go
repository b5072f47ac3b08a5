package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/campaignkit/pkg/compose"
	"github.com/matzehuels/campaignkit/pkg/design"
	"github.com/matzehuels/campaignkit/pkg/errors"
	"github.com/matzehuels/campaignkit/pkg/studio"
)

// composeCommand creates the compose command.
func (c *CLI) composeCommand() *cobra.Command {
	var (
		logo   string
		output string
		watch  bool
		flags  designFlags
	)

	cmd := &cobra.Command{
		Use:   "compose BASE",
		Short: "Compose a campaign visual from a base photo",
		Long: `Compose overlays the caption, tint and logo on BASE and writes a JPEG.

BASE and --logo may be local files, http(s) URLs or data: URLs. Settings come
from the config file's [design] table, then --settings, then flags.

With --watch the visual is rewritten whenever BASE, the logo or the settings
file changes. Saves that arrive while a render is running supersede it.`,
		Example: `  campaignkit compose photo.jpg --text "Winter sale" --pattern noir
  campaignkit compose photo.jpg --logo logo.png --settings design.toml --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.openStudio(ctx, offline)
			if err != nil {
				return err
			}
			defer st.Close()

			defaults := st.Store.Settings()
			settings, err := flags.apply(cmd.Flags(), defaults)
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

			prog := newProgress(c.Logger)
			if _, err := st.LoadBase(ctx, args[0]); err != nil {
				return err
			}
			out, err := st.Preview(ctx)
			if err != nil {
				return err
			}
			if output == "" {
				output = compose.ArtifactName(settings.OverlayText, time.Now())
			}
			if err := writeComposed(output, out); err != nil {
				return err
			}
			prog.done("Composed " + filepath.Base(output))
			printFile(output)
			printKeyValue("size", fmt.Sprintf("%dx%d", out.Width, out.Height))
			printKeyValue("quality", fmt.Sprintf("%d%%", out.Quality))
			if out.CacheHit {
				printKeyValue("cache", "hit")
			}

			if !watch {
				printNewline()
				printNextStep("Send it", appName+" dispatch --base "+args[0])
				return nil
			}
			w := composeWatch{
				st:       st,
				base:     args[0],
				logo:     logo,
				output:   output,
				flags:    &flags,
				fs:       cmd.Flags(),
				defaults: defaults,
			}
			return c.watchCompose(ctx, w)
		},
	}

	cmd.Flags().StringVarP(&logo, "logo", "l", "", "logo image")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default campaign-<caption>-<timestamp>.jpg)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "recompose when inputs change")
	flags.register(cmd.Flags())

	return cmd
}

func writeComposed(path string, out *compose.Composed) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeStorage, err, "create output dir")
		}
	}
	if err := os.WriteFile(path, out.Data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "write %s", path)
	}
	return nil
}

// =============================================================================
// Watch Mode
// =============================================================================

// composeWatch maps changed files back to studio mutations.
type composeWatch struct {
	st       *studio.Studio
	base     string
	logo     string
	output   string
	flags    *designFlags
	fs       *pflag.FlagSet
	defaults design.Settings
}

// watched returns the absolute paths of the local inputs.
func (w composeWatch) watched() []string {
	var paths []string
	for _, p := range []string{w.base, w.logo, w.flags.file} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			paths = append(paths, abs)
		}
	}
	return paths
}

// reload applies the change to name. Unrelated files are ignored.
func (w composeWatch) reload(ctx context.Context, name string) (bool, error) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false, nil
	}
	switch abs {
	case absPath(w.base):
		_, err := w.st.LoadBase(ctx, w.base)
		return true, err
	case absPath(w.logo):
		_, err := w.st.LoadLogo(ctx, w.logo)
		return true, err
	case absPath(w.flags.file):
		s, err := w.flags.apply(w.fs, w.defaults)
		if err != nil {
			return true, err
		}
		_, err = w.st.Store.SetSettings(s)
		return true, err
	}
	return false, nil
}

func absPath(p string) string {
	if p == "" {
		return ""
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}

func (c *CLI) watchCompose(ctx context.Context, w composeWatch) error {
	paths := w.watched()
	if len(paths) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "nothing to watch: inputs are not local files")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "start file watcher")
	}
	defer watcher.Close()

	// Editors replace files on save, so watch the directories.
	dirs := make(map[string]bool)
	for _, p := range paths {
		dirs[filepath.Dir(p)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "watch %s", dir)
		}
	}

	w.st.Renderer.OnUpdate(func(out *compose.Composed, err error) {
		if err != nil {
			printToast(err)
			return
		}
		if err := writeComposed(w.output, out); err != nil {
			printToast(err)
			return
		}
		printSuccess("Updated %s %s", w.output, StyleDim.Render(fmt.Sprintf("(generation %d)", out.Generation)))
	})

	printInfo("Watching %d file(s), ctrl+c to stop", len(paths))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			matched, err := w.reload(ctx, ev.Name)
			if err != nil {
				printToast(err)
			} else if matched {
				c.Logger.Debug("input changed", "file", ev.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.Logger.Warn("watch error", "error", err)
		}
	}
}
