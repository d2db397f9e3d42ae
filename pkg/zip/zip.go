package zip

import (
	"archive/zip"
	"io"
	"time"
)

// Asset is one file placed in an archive.
type Asset struct {
	Filename string
	Data     []byte
}

// WriteAssets streams assets into a zip written to w. Entries keep the given
// order and carry modified as their timestamp.
func WriteAssets(w io.Writer, assets []Asset, modified time.Time) error {
	zw := zip.NewWriter(w)
	for _, asset := range assets {
		hdr := &zip.FileHeader{
			Name:     asset.Filename,
			Method:   zip.Deflate,
			Modified: modified,
		}
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		if _, err := fw.Write(asset.Data); err != nil {
			return err
		}
	}
	return zw.Close()
}
