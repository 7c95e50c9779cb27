package common

import "math"

// Page converts a 1-based page number and a requested limit into SQL-style
// offset/limit values. Non-positive pages are treated as the first page and
// limits fall back to DefaultPageSize; limits above MaxPageSize are capped.
// Pages past the largest representable offset are clamped, so the offset is
// never negative.
func Page(page, limit int) (offset, size int) {
	size = limit
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	if page < 1 {
		page = 1
	}
	if page-1 > math.MaxInt/size {
		page = math.MaxInt/size + 1
	}
	return (page - 1) * size, size
}
