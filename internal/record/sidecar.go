package record

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Kind selects a sidecar encoding.
type Kind string

const (
	KindJSON Kind = "json"
	KindText Kind = "txt"
)

// ReportFileName is the search report written next to the sidecars. It is
// never treated as a sidecar.
const ReportFileName = "search_results.txt"

// HighlightSuffix marks highlighted PDF copies.
const HighlightSuffix = "_highlighted"

// ParseKind accepts "json" and "txt" in any case, with or without a dot.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimPrefix(s, "."))) {
	case KindJSON:
		return KindJSON, nil
	case KindText:
		return KindText, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Ext returns the file extension for k.
func (k Kind) Ext() string { return "." + string(k) }

// BasePath strips the extension from path: "dir/scan.pdf" becomes "dir/scan".
func BasePath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// SaveSidecars writes <basePath>.json and <basePath>.txt. Each file is
// written to a temporary name first and renamed into place.
func SaveSidecars(rec *DocumentRecord, basePath string) (jsonPath, txtPath string, err error) {
	const op = "SaveSidecars"

	var jsonBuf, txtBuf bytes.Buffer
	if err := WriteJSON(&jsonBuf, rec); err != nil {
		return "", "", err
	}
	if err := WriteText(&txtBuf, rec); err != nil {
		return "", "", err
	}

	jsonPath = basePath + KindJSON.Ext()
	txtPath = basePath + KindText.Ext()

	if err := writeFileAtomic(jsonPath, jsonBuf.Bytes()); err != nil {
		return "", "", WrapRecordError(op, err, jsonPath)
	}
	if err := writeFileAtomic(txtPath, txtBuf.Bytes()); err != nil {
		return "", "", WrapRecordError(op, err, txtPath)
	}
	return jsonPath, txtPath, nil
}

// LoadSidecar reads a .json or .txt sidecar. For text sidecars the PDF path is
// taken to be the sibling file with a .pdf extension.
func LoadSidecar(path string) (*DocumentRecord, error) {
	const op = "LoadSidecar"

	kind, err := ParseKind(filepath.Ext(path))
	if err != nil {
		return nil, WrapRecordError(op, err, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, WrapRecordError(op, err, path)
	}
	defer f.Close()

	var rec *DocumentRecord
	switch kind {
	case KindJSON:
		rec, err = ReadJSON(f)
	default:
		rec, err = ReadText(f, BasePath(path)+".pdf")
	}
	if err != nil {
		return nil, WrapRecordError(op, err, path)
	}
	return rec, nil
}

// ListSidecars returns the sorted paths of the kind sidecars directly inside
// dir. The search report is skipped.
func ListSidecars(dir string, kind Kind) ([]string, error) {
	const op = "ListSidecars"

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, WrapRecordError(op, err, dir)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || e.Name() == ReportFileName {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), kind.Ext()) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
