package archive

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// TarGzDir packs every regular file under srcDir into dstPath, storing paths
// relative to srcDir. It returns the number of files archived.
func TarGzDir(srcDir, dstPath string) (int, error) {
	out, err := os.Create(dstPath)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	files := 0
	err = filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)

		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}

		if err := copyFile(tw, path); err != nil {
			return err
		}

		files++
		return nil
	})
	if err != nil {
		return files, err
	}

	if err := tw.Close(); err != nil {
		return files, err
	}
	if err := gz.Close(); err != nil {
		return files, err
	}

	return files, out.Close()
}

func copyFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}
