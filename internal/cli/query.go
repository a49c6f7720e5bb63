package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dpshade/promptlib/internal/clipboard"
	"github.com/dpshade/promptlib/internal/errors"
	"github.com/dpshade/promptlib/internal/models"
	"github.com/dpshade/promptlib/internal/renderer"
	"github.com/dpshade/promptlib/internal/service"
)

func newListCmd(opts *options) *cobra.Command {
	var (
		category string
		tag      string
		match    string
		format   string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List indexed prompts",
		Long: `List the prompts recorded in the index, in index order.

--match takes a tag expression: tags combined with AND, OR, XOR, NOT and
parentheses. Adjacent tags are ANDed.

Examples:
  promptlib list --category development
  promptlib list --match "go AND NOT review" --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			expr, err := models.ParseTagExpr(match)
			if err != nil {
				return errors.ConfigError("invalid tag expression", err)
			}
			svc, err := opts.service()
			if err != nil {
				return err
			}
			headers, err := svc.ListPrompts(service.ListFilter{
				Category: category,
				Tag:      tag,
				Expr:     expr,
			})
			if err != nil {
				return err
			}
			return formatOutput(cmd.OutOrStdout(), headers, format)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "only prompts in this category")
	cmd.Flags().StringVar(&tag, "tag", "", "only prompts carrying this tag")
	cmd.Flags().StringVar(&match, "match", "", "only prompts whose tags match this expression")
	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json or yaml")
	return cmd
}

func newSearchCmd(opts *options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Fuzzy search indexed prompts",
		Long: `Rank indexed prompts by fuzzy matching the query against title, description,
id and tags. Best matches come first.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.service()
			if err != nil {
				return err
			}
			headers, err := svc.SearchPrompts(strings.Join(args, " "))
			if err != nil {
				return err
			}
			return formatOutput(cmd.OutOrStdout(), headers, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json or yaml")
	return cmd
}

func newShowCmd(opts *options) *cobra.Command {
	var (
		raw      bool
		copyBody bool
	)

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an indexed prompt",
		Long: `Print a prompt's metadata and its body rendered for the terminal.
--raw prints the file exactly as stored. --copy also puts the body on the
clipboard.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.service()
			if err != nil {
				return err
			}
			doc, err := svc.GetPrompt(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if raw {
				fmt.Fprint(out, doc.RawText)
			} else {
				printPrompt(out, doc)
			}

			if copyBody {
				status, err := clipboard.CopyWithFallback(doc.Body)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), status)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print the file as stored")
	cmd.Flags().BoolVar(&copyBody, "copy", false, "copy the prompt body to the clipboard")
	return cmd
}

func newTagsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List every tag used in the index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.service()
			if err != nil {
				return err
			}
			tags, err := svc.GetAllTags()
			if err != nil {
				return err
			}
			for _, tag := range tags {
				fmt.Fprintln(cmd.OutOrStdout(), tag)
			}
			return nil
		},
	}
}

// formatOutput writes headers in the requested format
func formatOutput(w io.Writer, headers []*models.Header, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if headers == nil {
			headers = []*models.Header{}
		}
		return enc.Encode(headers)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if headers == nil {
			headers = []*models.Header{}
		}
		if err := enc.Encode(headers); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
		if len(headers) == 0 {
			fmt.Fprintln(w, "No prompts found.")
			return nil
		}
		for _, h := range headers {
			fmt.Fprintf(w, "%-24s %s\n", h.ID, h.Title())
			if h.Summary != "" {
				fmt.Fprintf(w, "%-24s %s\n", "", h.Summary)
			}
			if len(h.Tags) > 0 {
				fmt.Fprintf(w, "%-24s Tags: %s\n", "", strings.Join(h.Tags, ", "))
			}
		}
		return nil
	default:
		return errors.ConfigError("unknown output format", nil).WithDetails(format)
	}
}

// printPrompt writes metadata lines followed by the rendered body
func printPrompt(w io.Writer, doc *models.Document) {
	h := doc.Header
	fmt.Fprintf(w, "%s\n", h.Title())
	fmt.Fprintf(w, "ID: %s | Version: %s | Status: %s\n", h.ID, h.Version, h.Status)

	category := h.Category
	if h.SubCategory != "" {
		category += "/" + h.SubCategory
	}
	fmt.Fprintf(w, "Category: %s | File: %s\n", category, h.FilePath)
	if len(h.Tags) > 0 {
		fmt.Fprintf(w, "Tags: %s\n", strings.Join(h.Tags, ", "))
	}
	if h.Summary != "" {
		fmt.Fprintf(w, "\n%s\n", h.Summary)
	}

	body, err := renderer.RenderMarkdown(doc.Body, 80)
	if err != nil {
		body = doc.Body
	}
	fmt.Fprintf(w, "\n%s", body)
}
