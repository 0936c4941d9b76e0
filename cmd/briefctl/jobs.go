package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/manthysbr/briefing/internal/core/domain"
	"github.com/manthysbr/briefing/internal/core/services"
	"github.com/spf13/cobra"
)

func newSubmitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit [file]",
		Short: "Submit an article for summarization (reads stdin without a file)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSubmit,
	}
	cmd.Flags().StringP("mode", "m", "", "summary mode: detailed, quick, half or short")
	cmd.Flags().StringP("title", "t", "", "article title")
	cmd.Flags().StringP("source", "s", "", "publication name")
	cmd.Flags().BoolP("wait", "w", false, "follow the job until it finishes and print the summary")
	return cmd
}

func runSubmit(cmd *cobra.Command, args []string) error {
	c, err := apiClient(cmd)
	if err != nil {
		return err
	}

	text, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	mode, _ := cmd.Flags().GetString("mode")
	title, _ := cmd.Flags().GetString("title")
	source, _ := cmd.Flags().GetString("source")
	wait, _ := cmd.Flags().GetBool("wait")

	res, err := c.Submit(cmd.Context(), domain.SubmitRequest{
		Text:   text,
		Mode:   mode,
		Title:  title,
		Source: source,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if res.TooShort() {
		fmt.Fprintln(out, res.Summary)
		return nil
	}
	if !wait {
		fmt.Fprintln(out, res.ID)
		return nil
	}

	errOut := cmd.ErrOrStderr()
	fmt.Fprintf(errOut, "job %s queued (%d tokens)\n", res.ID, res.InputTokens)
	job, err := c.Wait(cmd.Context(), res.ID, func(p services.StatusPayload) {
		fmt.Fprintf(errOut, "  %s %3d%%\n", p.Status, p.Progress)
	})
	if err != nil {
		return err
	}
	if job.Status == domain.JobStatusError {
		return fmt.Errorf("job %s failed: %s", job.ID, job.Output)
	}
	fmt.Fprintln(out, job.Output)
	return nil
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	var (
		raw []byte
		err error
	)
	if len(args) == 1 && args[0] != "-" {
		raw, err = os.ReadFile(args[0])
	} else {
		raw, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return "", fmt.Errorf("failed to read article: %w", err)
	}
	return string(raw), nil
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			job, err := c.Get(cmd.Context(), domain.JobID(args[0]))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), job)
		},
	}
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List completed jobs",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
	cmd.Flags().BoolP("all", "a", false, "include jobs that are processing or failed")
	return cmd
}

func runList(cmd *cobra.Command, _ []string) error {
	c, err := apiClient(cmd)
	if err != nil {
		return err
	}
	all, _ := cmd.Flags().GetBool("all")

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	defer w.Flush()

	if all {
		jobs, err := c.ListAll(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "ID\tSTATUS\tMODE\tSOURCE\tTITLE")
		for _, j := range jobs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", j.ID, j.Status, j.Mode, j.Source, j.Title)
		}
		return nil
	}

	jobs, err := c.ListCompleted(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "ID\tCREATED\tSOURCE\tTITLE")
	for _, j := range jobs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", j.ID, j.CreatedAt.Format("2006-01-02 15:04"), j.Source, j.Title)
	}
	return nil
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <job-id>...",
		Short: "Delete jobs, cancelling any that are still running",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			for _, id := range args {
				if err := c.Delete(cmd.Context(), domain.JobID(id)); err != nil {
					return fmt.Errorf("delete %s: %w", id, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "deleted", id)
			}
			return nil
		},
	}
}

func newDigestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "digest [job-id...]",
		Short: "Stitch completed summaries into one script (all completed jobs by default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}

			ids := make([]domain.JobID, 0, len(args))
			for _, a := range args {
				ids = append(ids, domain.JobID(a))
			}
			if len(ids) == 0 {
				done, err := c.ListCompleted(cmd.Context())
				if err != nil {
					return err
				}
				for _, j := range done {
					ids = append(ids, j.ID)
				}
			}

			res, err := c.Digest(cmd.Context(), ids)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Script)
			return nil
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
