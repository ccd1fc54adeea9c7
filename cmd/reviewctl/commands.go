package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/walacakra/internal/api"
	"github.com/JaimeStill/walacakra/internal/preview"
	"github.com/JaimeStill/walacakra/internal/remote"
	"github.com/JaimeStill/walacakra/internal/review"
)

// opener builds the review domain for a command.
type opener func(cmd *cobra.Command) (*api.Domain, error)

func newRootCmd(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:   "reviewctl",
		Short: "Review processed identity documents",
		Long:  `Upload documents, inspect extracted pages, and submit review decisions`,
	}

	root.AddCommand(cmdSettings(open))
	root.AddCommand(cmdUpload(open))
	root.AddCommand(cmdShow(open))
	root.AddCommand(cmdDecision(open, review.ActionApprove))
	root.AddCommand(cmdDecision(open, review.ActionReject))
	root.AddCommand(cmdDecision(open, review.ActionRecalculate))
	root.AddCommand(cmdHistory(open))
	root.AddCommand(cmdOpen(open))

	return root
}

func cmdSettings(open opener) *cobra.Command {
	var endpoint, token string
	cmd := &cobra.Command{
		Use:          "settings",
		Short:        "Show or save the processing API endpoint and token",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, err := open(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			s := domain.Settings.Load(ctx, nil)

			if cmd.Flags().Changed("endpoint") || cmd.Flags().Changed("token") {
				if cmd.Flags().Changed("endpoint") {
					s.Endpoint = endpoint
				}
				if cmd.Flags().Changed("token") {
					s.Token = token
				}
				if s, err = domain.Settings.Save(ctx, nil, s); err != nil {
					return err
				}
			}

			tokenState := "not set"
			if s.Token != "" {
				tokenState = "set"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "endpoint: %s\n", s.Endpoint)
			fmt.Fprintf(out, "token:    %s\n", tokenState)
			return nil
		},
	}
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "processing API base URL")
	cmd.Flags().StringVar(&token, "token", "", "bearer token")
	return cmd
}

func cmdUpload(open opener) *cobra.Command {
	return &cobra.Command{
		Use:          "upload <file>...",
		Short:        "Process files and replace the batch under review",
		SilenceUsage: true,
		Args:         cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files := make([]remote.UploadFile, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				files = append(files, remote.UploadFile{
					Filename:    filepath.Base(path),
					Data:        data,
					ContentType: preview.DetectContentType("", data),
				})
			}

			domain, err := open(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			s := domain.Settings.Load(ctx, nil)
			if _, err := s.BaseURL(); err != nil {
				return err
			}

			batch := domain.Client.ProcessBatch(ctx, s, files)
			if err := domain.Review.Replace(ctx, batch); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, f := range batch.Files {
				state := "ok"
				if f.Response == nil {
					state = "failed: " + f.Error
				}
				fmt.Fprintf(out, "%d  %s  %s\n", i, f.Filename, state)
			}
			return nil
		},
	}
}

func cmdShow(open opener) *cobra.Command {
	var file int
	cmd := &cobra.Command{
		Use:          "show",
		Short:        "Print the selected file of the batch under review",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, err := open(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := selectFile(cmd, domain, file); err != nil {
				return err
			}
			printView(cmd.OutOrStdout(), domain.Review.View(ctx, domain.Settings.Load(ctx, nil)))
			return nil
		},
	}
	cmd.Flags().IntVarP(&file, "file", "f", 0, "index of the file in the batch")
	return cmd
}

// cmdDecision builds the approve, reject, and recalculate commands.
// Corrections are only accepted by recalculate.
func cmdDecision(open opener, action review.Action) *cobra.Command {
	var file int
	var yes bool
	var sets []string
	cmd := &cobra.Command{
		Use:          string(action),
		Short:        fmt.Sprintf("Submit the %s decision for the selected file", action),
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			edits, err := parseEdits(sets)
			if err != nil {
				return err
			}

			domain, err := open(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := selectFile(cmd, domain, file); err != nil {
				return err
			}
			for _, e := range edits {
				if err := domain.Review.Edit(ctx, e.index, e.field, e.value); err != nil {
					return err
				}
			}

			var confirm review.Confirmer = review.Confirmed(true)
			if !yes {
				confirm = stdinConfirmer(cmd.InOrStdin(), cmd.OutOrStdout())
			}

			s := domain.Settings.Load(ctx, nil)
			outcome, err := domain.Review.Decide(ctx, s, action, confirm)
			if errors.Is(err, review.ErrDeclined) {
				fmt.Fprintln(cmd.OutOrStdout(), "cancelled")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), outcome.Message())
			return nil
		},
	}
	cmd.Flags().IntVarP(&file, "file", "f", 0, "index of the file in the batch")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	if action == review.ActionRecalculate {
		cmd.Flags().StringArrayVar(&sets, "set", nil, "correction as <page>.<field>=<value>, field is docType, nik, or name")
	}
	return cmd
}

func cmdHistory(open opener) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:          "history",
		Short:        "List processed documents",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, err := open(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			s := domain.Settings.Load(ctx, nil)

			if err := domain.Review.SwitchTab(ctx, s, review.TabHistory); err != nil {
				return err
			}
			if page > 1 {
				if err := domain.Review.HistoryPage(ctx, s, page); err != nil {
					return err
				}
			}

			h := domain.Review.Session().History
			if h.Error != "" {
				return errors.New(h.Error)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "HASH\tFILE\tPAGES\tASSESSMENT\tPROCESSED")
			for _, item := range h.Items {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", item.Hash, item.Filename, item.Pages, item.Assessment.Label(), item.ProcessedAt)
			}
			w.Flush()
			fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d\n", h.Pagination.Page, h.Pagination.TotalPages)
			return nil
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "history page")
	return cmd
}

func cmdOpen(open opener) *cobra.Command {
	var filename string
	cmd := &cobra.Command{
		Use:          "open <hash>",
		Short:        "Load a processed document from history as the batch under review",
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, err := open(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			s := domain.Settings.Load(ctx, nil)
			if err := domain.Review.OpenHistoryItem(ctx, s, args[0], filename); err != nil {
				return err
			}
			printView(cmd.OutOrStdout(), domain.Review.View(ctx, s))
			return nil
		},
	}
	cmd.Flags().StringVar(&filename, "filename", "", "display name of the document")
	return cmd
}

// selectFile selects index when the --file flag was given and otherwise
// keeps the current selection.
func selectFile(cmd *cobra.Command, domain *api.Domain, index int) error {
	if !cmd.Flags().Changed("file") {
		return nil
	}
	return domain.Review.Select(cmd.Context(), index)
}

type edit struct {
	index int
	field review.Field
	value string
}

// parseEdits reads corrections of the form <page>.<field>=<value> where page
// is the one-based page number shown by show.
func parseEdits(sets []string) ([]edit, error) {
	edits := make([]edit, 0, len(sets))
	for _, s := range sets {
		target, value, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("invalid correction %q: missing '='", s)
		}
		page, name, ok := strings.Cut(target, ".")
		if !ok {
			return nil, fmt.Errorf("invalid correction %q: missing '.'", s)
		}
		n, err := strconv.Atoi(page)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid correction %q: bad page number", s)
		}
		field, err := review.ParseField(name)
		if err != nil {
			return nil, err
		}
		edits = append(edits, edit{index: n - 1, field: field, value: value})
	}
	return edits, nil
}

// stdinConfirmer prompts on out and accepts y or yes from in.
func stdinConfirmer(in io.Reader, out io.Writer) review.Confirmer {
	reader := bufio.NewReader(in)
	return review.ConfirmFunc(func(_ context.Context, prompt string) bool {
		fmt.Fprintf(out, "%s [y/N] ", prompt)
		line, _ := reader.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		default:
			return false
		}
	})
}

func printView(out io.Writer, view review.View) {
	if view.Notice != "" {
		fmt.Fprintln(out, view.Notice)
		return
	}

	fmt.Fprintln(out, view.StatusText)
	for _, f := range view.Files {
		marker := " "
		if f.Selected {
			marker = "*"
		}
		suffix := ""
		if f.Failed {
			suffix = " (failed)"
		}
		fmt.Fprintf(out, "%s %d  %s%s\n", marker, f.Index, f.Filename, suffix)
	}

	file := view.File
	if file == nil {
		return
	}
	fmt.Fprintln(out)
	if file.Notice != "" {
		fmt.Fprintln(out, file.Notice)
		return
	}

	fmt.Fprintf(out, "%s  [%s]\n", file.Filename, file.Badge.Label)
	fmt.Fprintf(out, "name: %s\nnik:  %s\n", file.PrimaryName, file.PrimaryNIK)
	fmt.Fprintln(out, file.SummaryText)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PAGE\tTYPE\tNIK\tNAME\tSTATUS")
	for _, row := range file.Rows {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", row.DisplayNumber, row.DocType, row.NIK, row.Name, row.StatusText)
	}
	w.Flush()
}
