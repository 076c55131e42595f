package expand

// Paginate derives (page_size, page_number, page_offset) from (skip, count,
// pageSizeLimit):
//
//	page_size   = min(count, pageSizeLimit)    (or count, if pageSizeLimit <= 0)
//	page_number = floor(skip / page_size)
//	page_offset = skip mod page_size
//
// A zero page_size (pathological count==0) is treated as "no paging
// translation": page_number and page_offset are left at zero rather than
// dividing by zero.
func Paginate(skip, count, pageSizeLimit int) (pageSize, pageNumber, pageOffset int) {
	pageSize = count
	if pageSizeLimit > 0 && pageSizeLimit < count {
		pageSize = pageSizeLimit
	}
	if pageSize <= 0 {
		return pageSize, 0, 0
	}
	pageNumber = skip / pageSize
	pageOffset = skip % pageSize
	return pageSize, pageNumber, pageOffset
}
