package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/galassia/internal/adapters/driven/dataset"
	"github.com/custodia-labs/galassia/internal/bootstrap"
	"github.com/custodia-labs/galassia/internal/core/domain"
)

// Import kinds besides the document partitions.
const (
	importKindRecords = "records"
	importKindDishes  = "dishes"
)

var (
	importChunkSize    int
	importChunkOverlap int
	importHeadingsOnly bool
)

var importCmd = &cobra.Command{
	Use:   "import [kind] [path]",
	Short: "Load dataset content into the stores",
	Long: `Loads dataset content into the store the workflow reads.

Kinds:
  menu     restaurant menus
  code     the galactic regulatory code
  manual   the cooking technique manual
  records  structured menu records for the record store (needs mongo.uri)
  dishes   dishes for the ingredient graph, one {"name": ..., "ingredients": [...]} per line

For menu, code and manual the path is either a JSON Lines file with one
{"content": ..., "metadata": {...}} per line, or a Markdown, HTML, DOCX,
PDF or text file, or a directory of them. PDF needs pdftotext from poppler.
Markdown menus are split into one document per heading; long texts are
split into chunks. Menu documents are tagged with restaurant and dish names
from their headings, and with chef, planet, licences, ingredients and
techniques extracted by the language model when one is configured.

Examples:
  galassia import menu ./dataset/menus/
  galassia import code ./dataset/galactic_code.txt --chunk-size 256
  galassia import dishes ./dataset/dishes.jsonl`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: importKinds(),
	RunE:      runImport,
}

func init() {
	importCmd.Flags().IntVar(&importChunkSize, "chunk-size", 0, "characters per chunk (0 = default)")
	importCmd.Flags().IntVar(&importChunkOverlap, "chunk-overlap", -1, "characters shared by consecutive chunks (-1 = default)")
	importCmd.Flags().BoolVar(&importHeadingsOnly, "headings-only", false, "tag menus from their headings without calling the language model")
	rootCmd.AddCommand(importCmd)
}

// chunkingConfig maps the chunk flags onto the chunker configuration.
func chunkingConfig() map[string]any {
	cfg := map[string]any{}
	if importChunkSize > 0 {
		cfg["chunk_size"] = importChunkSize
	}
	if importChunkOverlap >= 0 {
		cfg["overlap"] = importChunkOverlap
	}
	return cfg
}

func importKinds() []string {
	return []string{
		string(domain.PartitionMenu),
		string(domain.PartitionCode),
		string(domain.PartitionManual),
		importKindRecords,
		importKindDishes,
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	kind, path := strings.ToLower(args[0]), args[1]

	svc, err := openServices(cmd.Context(), bootstrap.Options{
		Chunking:            chunkingConfig(),
		ExtractMenuMetadata: kind == string(domain.PartitionMenu) && !importHeadingsOnly,
	})
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := cmd.Context()
	var n int
	switch kind {
	case importKindRecords:
		records, err := dataset.LoadRecords(path)
		if err != nil {
			return err
		}
		n, err = svc.Importer.ImportRecords(ctx, records)
		if err != nil {
			return fmt.Errorf("import failed after %d records: %w", n, err)
		}
	case importKindDishes:
		dishes, err := dataset.LoadDishes(path)
		if err != nil {
			return err
		}
		n, err = svc.Importer.ImportDishes(ctx, dishes)
		if err != nil {
			return fmt.Errorf("import failed after %d dishes: %w", n, err)
		}
	default:
		partition := domain.Partition(kind)
		if !partition.IsValid() {
			return fmt.Errorf("unknown import kind %q (expected one of %s)", kind, strings.Join(importKinds(), ", "))
		}
		n, err = importPartition(cmd, svc, partition, path)
		if err != nil {
			return fmt.Errorf("import failed after %d documents: %w", n, err)
		}
	}

	cmd.Printf("Imported %d %s entries from %s\n", n, kind, path)
	return nil
}

// importPartition loads documents from a JSON Lines file or from source files.
func importPartition(cmd *cobra.Command, svc *bootstrap.Services, partition domain.Partition, path string) (int, error) {
	ctx := cmd.Context()
	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		docs, err := dataset.LoadDocuments(path)
		if err != nil {
			return 0, err
		}
		return svc.Importer.ImportDocuments(ctx, partition, docs)
	}

	if svc.Sources == nil {
		return 0, errors.New("file import not configured")
	}
	files, err := svc.Sources.Collect(ctx, path)
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, fmt.Errorf("no supported files under %s", path)
	}
	cmd.Printf("Reading %d files...\n", len(files))
	return svc.Importer.ImportFiles(ctx, partition, files)
}
