// Package paging converts one-based page numbers into offsets for the example's paged queries.
package paging

import (
	"errors"
	"fmt"
	"math"
)

// MaxPageSize bounds the number of rows one page may request.
const MaxPageSize = 500

// ErrInvalidPage is returned for page numbers below one, page sizes outside 1..MaxPageSize
// and pages whose offset does not fit into an int.
var ErrInvalidPage = errors.New("invalid page")

// Page is a validated one-based page request.
type Page struct {
	Number int
	Size   int
}

// New validates number and size.
func New(number, size int) (Page, error) {
	if number < 1 {
		return Page{}, fmt.Errorf("%w: page number %d must be at least 1", ErrInvalidPage, number)
	}

	if size < 1 || size > MaxPageSize {
		return Page{}, fmt.Errorf("%w: page size %d must be between 1 and %d", ErrInvalidPage, size, MaxPageSize)
	}

	if number-1 > math.MaxInt/size {
		return Page{}, fmt.Errorf("%w: page number %d with size %d exceeds the maximum offset", ErrInvalidPage, number, size)
	}

	return Page{Number: number, Size: size}, nil
}

// Offset returns the number of rows to skip: (number-1)*size.
func (p Page) Offset() uint {
	return uint((p.Number - 1) * p.Size)
}

// Limit returns the number of rows to fetch.
func (p Page) Limit() uint {
	return uint(p.Size)
}
