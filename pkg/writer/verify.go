// pkg/writer/verify.go
package writer

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"
)

// VerifyPartitions reads back the parquet footers under outputPath and checks
// that the written row counts sum to wantRows. It catches truncated or
// missing partition files after a non-atomic multi-partition write.
func VerifyPartitions(outputPath string, wantRows int) error {
	logger := zap.L().Named("writer")

	var total int64
	err := filepath.WalkDir(outputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".parquet") {
			return nil
		}

		rows, err := parquetRowCount(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		total += rows
		return nil
	})
	if err != nil {
		return fmt.Errorf("verifying partitions under %q: %w", outputPath, err)
	}

	if total != int64(wantRows) {
		return fmt.Errorf("partition verification failed: wrote %d rows, expected %d", total, wantRows)
	}

	logger.Debug("Verified partitions", zap.String("path", outputPath), zap.Int64("rows", total))
	return nil
}

func parquetRowCount(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return 0, err
	}
	return pf.NumRows(), nil
}
