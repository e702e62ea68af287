package compiler

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/spellbook/internal/ir"
)

// BookFile is one CUE file and the books it declares, in field order.
type BookFile struct {
	Path  string
	Books []*ir.Book
}

// Dir returns the directory relative scenario paths resolve against.
func (f BookFile) Dir() string {
	return filepath.Dir(f.Path)
}

// LoadFile compiles every book declared under the top-level "book" field
// of a single CUE file.
func LoadFile(path string) ([]*ir.Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	booksVal := value.LookupPath(cue.ParsePath("book"))
	if !booksVal.Exists() {
		return nil, &CompileError{
			Field:   "book",
			Message: fmt.Sprintf("no book declarations found in %s", path),
		}
	}

	iter, err := booksVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var books []*ir.Book
	for iter.Next() {
		b, err := CompileBook(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("book.%s: %w", iter.Label(), err)
		}
		books = append(books, b)
	}
	return books, nil
}

// LoadBook compiles the named book from a CUE file. An empty name selects
// the only book in the file.
func LoadBook(path, name string) (*ir.Book, error) {
	books, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	if name == "" {
		if len(books) != 1 {
			return nil, fmt.Errorf("%s declares %d books; name one", path, len(books))
		}
		return books[0], nil
	}
	for _, b := range books {
		if b.Name == name {
			return b, nil
		}
	}
	return nil, fmt.Errorf("book %q not found in %s", name, path)
}

// LoadPath compiles a single .cue file or every .cue file under a
// directory. Files are returned in lexical path order.
func LoadPath(path string) ([]BookFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	files := []string{path}
	if info.IsDir() {
		files, err = FindCUEFiles(path)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", path, err)
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no CUE files found in %s", path)
		}
	}

	var out []BookFile
	for _, f := range files {
		books, err := LoadFile(f)
		if err != nil {
			return nil, err
		}
		out = append(out, BookFile{Path: f, Books: books})
	}
	return out, nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
