package attach

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
)

var pageObject = regexp.MustCompile(`/Type\s*/Page\b`)

// readPDF stages data in a temporary file, reopens it and checks that it is
// a PDF with at least one page. It returns the bytes read back from disk.
func readPDF(data []byte, dir string) ([]byte, error) {
	f, err := os.CreateTemp(dir, "inventar-drop-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	name := f.Name()
	defer os.Remove(name)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("closing temp file: %w", err)
	}

	doc, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("reading temp file: %w", err)
	}
	if err := checkPDF(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func checkPDF(doc []byte) error {
	if !bytes.HasPrefix(doc, []byte("%PDF-")) {
		return fmt.Errorf("%w: missing PDF header", ErrUnsupported)
	}
	tail := doc[max(0, len(doc)-1024):]
	if !bytes.Contains(tail, []byte("%%EOF")) {
		return fmt.Errorf("%w: missing PDF trailer", ErrUnsupported)
	}
	if !pageObject.Match(doc) {
		return fmt.Errorf("%w: PDF has no pages", ErrUnsupported)
	}
	return nil
}
