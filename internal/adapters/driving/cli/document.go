package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

var docsJSON bool

var docsCmd = &cobra.Command{
	Use:     "docs",
	Aliases: []string{"documents"},
	Short:   "Manage uploaded documents",
	Long:    `List, inspect and delete uploaded documents.`,
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List uploaded documents",
	Args:  cobra.NoArgs,
	RunE:  runDocsList,
}

var docsGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsGet,
}

var docsDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its chunks",
	Long: `Removes every indexed chunk of the document, then its catalogue record.
Deleting an id that does not exist succeeds and removes nothing.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocsDelete,
}

func init() {
	docsListCmd.Flags().BoolVar(&docsJSON, "json", false, "output as JSON")
	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsGetCmd)
	docsCmd.AddCommand(docsDeleteCmd)
	rootCmd.AddCommand(docsCmd)
}

// documentJSON is the JSON shape of a listed document.
type documentJSON struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	Format     string `json:"format"`
	UploadedAt string `json:"upload_timestamp"`
}

func runDocsList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", describe(err))
	}

	if docsJSON {
		out := make([]documentJSON, len(docs))
		for i := range docs {
			out[i] = documentJSON{
				ID:         docs[i].ID,
				Filename:   docs[i].Filename,
				Format:     string(docs[i].Format),
				UploadedAt: docs[i].CreatedAt.UTC().Format(timeFormatJSON),
			}
		}
		return printJSON(cmd, out)
	}

	if len(docs) == 0 {
		cmd.Println("No documents uploaded.")
		return nil
	}

	cmd.Println("Documents:")
	cmd.Println()
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    File:     %s\n", docs[i].Filename)
		cmd.Printf("    Format:   %s\n", docs[i].Format)
		cmd.Printf("    Uploaded: %s\n", docs[i].CreatedAt.Local().Format(timeFormatText))
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocsGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", describe(err))
	}

	printDocument(cmd, doc)
	return nil
}

func printDocument(cmd *cobra.Command, doc *domain.Document) {
	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  File:     %s\n", doc.Filename)
	if doc.Title != "" {
		cmd.Printf("  Title:    %s\n", doc.Title)
	}
	cmd.Printf("  Format:   %s (%s)\n", doc.Format, doc.Format.MIMEType())
	cmd.Printf("  Uploaded: %s\n", doc.CreatedAt.Local().Format(timeFormatText))

	if len(doc.Metadata) > 0 {
		keys := make([]string, 0, len(doc.Metadata))
		for k := range doc.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		cmd.Println("\n  Metadata:")
		for _, k := range keys {
			cmd.Printf("    %s: %v\n", k, doc.Metadata[k])
		}
	}
}

func runDocsDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	res, err := documentService.Delete(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", describe(err))
	}

	cmd.Printf("Deleted document %s (%d chunks removed).\n", res.DocumentID, res.ChunksRemoved)
	return nil
}

const (
	timeFormatText = "2006-01-02 15:04:05"
	timeFormatJSON = "2006-01-02T15:04:05Z"
)

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
