package feed

// Cursor arithmetic. Pagination keys are opaque integer offsets derived from
// the current offset and page size, never stored independently.

// PrevKey returns the offset of the preceding page, or nil when offset is at
// or before initialOffset (there is nothing before the first page).
func PrevKey(offset, pageSize, initialOffset int) *int {
	if offset <= initialOffset {
		return nil
	}
	k := offset - pageSize
	return &k
}

// NextKey returns the offset of the following page, or nil when the page
// just fetched was empty — an empty page signals end-of-data.
func NextKey(resultCount, offset, pageSize int) *int {
	if resultCount == 0 {
		return nil
	}
	k := offset + pageSize
	return &k
}

// RefreshKey returns the offset to reload after an external refresh signal,
// anchored at a page with the given keys: prevKey + pageSize when the
// previous key is known, else nextKey - pageSize, else nil (reload from the
// start).
func RefreshKey(prevKey, nextKey *int, pageSize int) *int {
	switch {
	case prevKey != nil:
		k := *prevKey + pageSize
		return &k
	case nextKey != nil:
		k := *nextKey - pageSize
		return &k
	default:
		return nil
	}
}
