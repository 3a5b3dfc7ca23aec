// Package archive bundles generated batch documents into a single zip and
// owns the deterministic naming scheme for documents and archives.
package archive

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"fmt"
	"io"
	"time"

	"linkbatch/internal/model"
)

// DocumentName builds the per-batch filename: 1-based zero-padded batch
// index plus the batch's absolute 1-based link offsets.
func DocumentName(platform model.Platform, index, first, last int) string {
	return fmt.Sprintf("%s_Batch_%02d_Links_%d-%d.xlsx", platform, index, first, last)
}

// Name builds the archive filename with a second-granularity timestamp.
func Name(platform model.Platform, ts time.Time) string {
	return fmt.Sprintf("%s_Batches_%s.zip", platform, ts.Format("20060102_150405"))
}

// Build writes every file into a flat deflate-compressed zip held in
// memory. Entry order follows the input order; entry metadata carries no
// timestamps, so identical inputs produce identical archives.
func Build(files []model.GeneratedFile) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	for _, f := range files {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:   f.Name,
			Method: zip.Deflate,
		})
		if err != nil {
			return nil, fmt.Errorf("create archive entry %s: %w", f.Name, err)
		}
		if _, err := w.Write(f.Data); err != nil {
			return nil, fmt.Errorf("write archive entry %s: %w", f.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}
