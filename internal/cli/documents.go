package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/capitalize-ai/support-router/internal/ingest"
	"github.com/capitalize-ai/support-router/internal/model"
)

func newIngestCommand(open openFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Ingest markdown, text or YAML documents",
		Long: `Ingest one or more files into the knowledge base. Markdown and text files
become one document titled after the file name. YAML files hold a list of
documents under a top-level "documents" key.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var reqs []model.IngestRequest
			for _, path := range args {
				docs, err := ingest.ReadDocumentFile(path)
				if err != nil {
					return fmt.Errorf("reading %s: %w", path, err)
				}
				reqs = append(reqs, docs...)
			}

			a, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			res := a.Processor.IngestBatch(cmd.Context(), reqs)
			printBatch(cmd.OutOrStdout(), res)
			if len(res.Failed) > 0 {
				return fmt.Errorf("%d document(s) failed to ingest", len(res.Failed))
			}
			return nil
		},
	}
}

func newSeedCommand(open openFunc) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the sample knowledge base",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := ingest.LoadSeedFile(file)
			if err != nil {
				return err
			}

			a, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			res := a.Processor.IngestBatch(cmd.Context(), docs)
			printBatch(cmd.OutOrStdout(), res)
			if len(res.Failed) > 0 {
				return fmt.Errorf("%d document(s) failed to ingest", len(res.Failed))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "data/sample-documents.yaml", "seed file to load")
	return cmd
}

func newDocumentsCommand(open openFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "documents",
		Short: "List ingested documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			docs, err := a.Processor.ListDocuments(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing documents: %w", err)
			}
			if len(docs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No documents found.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tCHUNKS\tINGESTED")
			for _, d := range docs {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", d.ID, d.Title, d.ChunkCount, d.IngestedAt.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}
}

func printBatch(w io.Writer, res *model.BatchIngestResult) {
	for _, r := range res.Ingested {
		fmt.Fprintf(w, "ingested %q (%d chunks) as %s\n", r.Title, r.ChunkCount, r.DocumentID)
	}
	for _, title := range res.Failed {
		fmt.Fprintf(w, "failed   %q\n", title)
	}
}
