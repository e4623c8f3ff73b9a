package domain

// Sort keys accepted by the leaderboard.
const (
	SortBySparklingScore    = "sparklingScore"
	SortByReviewComponent   = "reviewComponent"
	SortByMetadataComponent = "metadataComponent"
	SortByRanking           = "ranking"

	SortAsc  = "ASC"
	SortDesc = "DESC"
)

// LeaderboardQuery selects one page of scoring rows.
type LeaderboardQuery struct {
	Page      int    `json:"page" validate:"min=1"`
	Limit     int    `json:"limit" validate:"min=1,max=100"`
	SortBy    string `json:"sortBy" validate:"oneof=sparklingScore reviewComponent metadataComponent ranking"`
	SortOrder string `json:"sortOrder" validate:"oneof=ASC DESC"`
}

// Normalize fills defaults for zero values.
func (q LeaderboardQuery) Normalize() LeaderboardQuery {
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Limit == 0 {
		q.Limit = 20
	}
	if q.SortBy == "" {
		q.SortBy = SortBySparklingScore
	}
	if q.SortOrder == "" {
		q.SortOrder = SortDesc
	}
	return q
}

// Validate reports malformed paging or sort parameters.
func (q LeaderboardQuery) Validate() error { return validateStruct(q) }

// Offset is the zero-based row offset for the page.
func (q LeaderboardQuery) Offset() int { return (q.Page - 1) * q.Limit }

// LeaderboardRecord is a scoring row joined with live hotel fields.
type LeaderboardRecord struct {
	HotelScoring
	Hotel HotelDisplay `json:"hotel"`
}

// Pagination describes the page returned.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// LeaderboardPage is the leaderboard response.
type LeaderboardPage struct {
	Records    []LeaderboardRecord `json:"records"`
	Pagination Pagination          `json:"pagination"`
	Stale      bool                `json:"stale"`
}

// NewPagination computes total pages for total rows.
func NewPagination(total int, q LeaderboardQuery) Pagination {
	pages := 0
	if q.Limit > 0 {
		pages = (total + q.Limit - 1) / q.Limit
	}
	return Pagination{Total: total, Page: q.Page, Limit: q.Limit, TotalPages: pages}
}
