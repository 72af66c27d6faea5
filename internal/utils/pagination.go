package utils

// Pagination 分页计算结果
type Pagination struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	Offset     int   `json:"-"`
}

// Paginate 计算分页参数，总页数至少为 1，页码被限制在 [1, TotalPages] 之内
func Paginate(total int64, page, perPage int) Pagination {
	if perPage < 1 {
		perPage = 1
	}
	if total < 0 {
		total = 0
	}

	totalPages := int(total / int64(perPage))
	if total%int64(perPage) > 0 {
		totalPages++
	}
	if totalPages < 1 {
		totalPages = 1
	}

	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	return Pagination{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
		Offset:     (page - 1) * perPage,
	}
}

func (p Pagination) HasPrev() bool { return p.Page > 1 }
func (p Pagination) HasNext() bool { return p.Page < p.TotalPages }
func (p Pagination) PrevPage() int { return p.Page - 1 }
func (p Pagination) NextPage() int { return p.Page + 1 }

// Window 返回以当前页为中心、最多 size 个页码
func (p Pagination) Window(size int) []int {
	if size < 1 {
		size = 1
	}
	if size > p.TotalPages {
		size = p.TotalPages
	}

	start := p.Page - size/2
	if start < 1 {
		start = 1
	}
	if start+size-1 > p.TotalPages {
		start = p.TotalPages - size + 1
	}

	pages := make([]int, size)
	for i := range pages {
		pages[i] = start + i
	}
	return pages
}
