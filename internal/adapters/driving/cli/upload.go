package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

var uploadJSON bool

var uploadCmd = &cobra.Command{
	Use:   "upload [file...]",
	Short: "Upload and index documents",
	Long: `Extracts the text of each file, splits it into overlapping chunks and
indexes them for retrieval.

Supported formats: .pdf, .docx, .html, .md, .txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().BoolVar(&uploadJSON, "json", false, "output uploaded documents as JSON")
	rootCmd.AddCommand(uploadCmd)
}

// uploadResult is the JSON shape of one uploaded file.
type uploadResult struct {
	Path   string `json:"path"`
	ID     string `json:"id,omitempty"`
	Chunks any    `json:"chunks,omitempty"`
	Error  string `json:"error,omitempty"`
}

func runUpload(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	results := make([]uploadResult, 0, len(args))
	failed := 0
	for _, path := range args {
		res := uploadResult{Path: path}
		doc, err := uploadFile(cmd, path)
		if err != nil {
			failed++
			res.Error = err.Error()
			if !uploadJSON {
				cmd.PrintErrf("%s: %v\n", path, err)
			}
		} else {
			res.ID = doc.ID
			res.Chunks = doc.Metadata["chunks"]
			if !uploadJSON {
				cmd.Printf("Uploaded %s as %s (%v chunks)\n", doc.Filename, doc.ID, res.Chunks)
			}
		}
		results = append(results, res)
	}

	if uploadJSON {
		if err := printJSON(cmd, results); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(args))
	}
	return nil
}

func uploadFile(cmd *cobra.Command, path string) (*domain.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	doc, err := ingestService.Ingest(cmd.Context(), filepath.Base(path), content)
	if err != nil {
		return nil, describe(err)
	}
	return doc, nil
}
