package viewmodel

// Pagination contains offset pagination metadata for list views.
type Pagination struct {
	Limit      int
	Offset     int
	Total      int
	StartIndex int
	EndIndex   int
	HasPrev    bool
	HasNext    bool
	PrevURL    string
	NextURL    string
}
