package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/inkframe/pkg/errors"
	"github.com/matzehuels/inkframe/pkg/page"
)

// MaxPageBytes bounds a page document.
const MaxPageBytes = 4 << 20

// ReadJSON decodes a page record from r.
//
// Unknown fields are rejected so misspelled keys do not silently fall back
// to defaults. The decoded page is validated and given an id if it has none.
// ReadJSON does not close r.
func ReadJSON(r io.Reader) (*page.Page, error) {
	dec := json.NewDecoder(io.LimitReader(r, MaxPageBytes+1))
	dec.DisallowUnknownFields()

	var p page.Page
	if err := dec.Decode(&p); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPage, err, "decode page")
	}
	if dec.More() {
		return nil, errors.New(errors.ErrCodeInvalidPage, "decode page: trailing data after document")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.EnsureID()
	return &p, nil
}

// ImportJSON reads a page record from the file at path.
//
// A missing file is reported with [errors.ErrCodeFileNotFound]; decoding
// errors are the same as for [ReadJSON].
func ImportJSON(path string) (*page.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	p, err := ReadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}
