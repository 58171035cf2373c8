package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/inkframe/pkg/errors"
)

// templatesCommand inspects the layout template catalog.
func (c *CLI) templatesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"tmpl"},
		Short:   "List and inspect layout templates",
	}

	cmd.AddCommand(c.templatesListCommand())
	cmd.AddCommand(c.templatesShowCommand())
	cmd.AddCommand(c.templatesPickCommand())

	return cmd
}

func (c *CLI) templatesListCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every layout template",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.registry()
			if err != nil {
				return err
			}
			if asJSON {
				return writeIndentedJSON(reg.All())
			}
			fmt.Fprintln(stdout, templateTable(reg.All(), reg.DefaultID()))
			printDetail("* default template")
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the catalog as JSON")
	return cmd
}

func (c *CLI) templatesShowCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a template's slots with a preview",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.registry()
			if err != nil {
				return err
			}
			t, ok := reg.Get(args[0])
			if !ok {
				return errors.New(errors.ErrCodeTemplateNotFound, "unknown layout template %q", args[0])
			}
			if asJSON {
				return writeIndentedJSON(t)
			}

			fmt.Fprintln(stdout, StyleTitle.Render(t.Name))
			printKeyValue("ID", t.ID)
			printKeyValue("Grid", t.GridType)
			printKeyValue("Panels", fmt.Sprint(t.PanelCount))
			if len(t.Tags) > 0 {
				printKeyValue("Tags", strings.Join(t.Tags, ", "))
			}
			if len(t.BestFor) > 0 {
				printKeyValue("Best for", strings.Join(t.BestFor, ", "))
			}
			printNewline()
			fmt.Fprintln(stdout, templatePreview(t, previewWidth*2, previewHeight))
			printNewline()
			for i, slot := range t.Panels {
				r := slot.Rect
				printDetail("%d  %-14s x=%.3f y=%.3f w=%.3f h=%.3f z=%d %s",
					i+1, slot.ID, r.X, r.Y, r.Width, r.Height, slot.ZIndex, slot.PanelType)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the template as JSON")
	c.registerTemplateArgCompletion(cmd)
	return cmd
}

func (c *CLI) templatesPickCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pick",
		Short: "Browse templates interactively and print the chosen id",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := c.pickTemplate()
			if err != nil || id == "" {
				return err
			}
			fmt.Fprintln(stdout, id)
			return nil
		},
	}
}

func writeIndentedJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
