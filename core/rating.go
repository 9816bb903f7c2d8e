package core

// Rating 是一条历史评分，不可变。
type Rating struct {
	UserID int64   `json:"user_id"`
	ItemID int64   `json:"anime_id"`
	Value  float64 `json:"rating"`
}

// RatingHistory 是只读的评分历史，附带按用户的已评分集合。
type RatingHistory struct {
	ratings []Rating
	byUser  map[int64]map[int64]struct{}
}

// NewRatingHistory 构建评分历史。
func NewRatingHistory(ratings []Rating) *RatingHistory {
	h := &RatingHistory{
		ratings: make([]Rating, len(ratings)),
		byUser:  make(map[int64]map[int64]struct{}),
	}
	copy(h.ratings, ratings)
	for _, r := range ratings {
		rated, ok := h.byUser[r.UserID]
		if !ok {
			rated = make(map[int64]struct{})
			h.byUser[r.UserID] = rated
		}
		rated[r.ItemID] = struct{}{}
	}
	return h
}

// Len 返回评分条数。
func (h *RatingHistory) Len() int {
	if h == nil {
		return 0
	}
	return len(h.ratings)
}

// All 返回评分列表（只读，调用方不得修改）。
func (h *RatingHistory) All() []Rating {
	if h == nil {
		return nil
	}
	return h.ratings
}

// RatedBy 返回用户已评分的物品集合，用户不存在时返回 nil。
func (h *RatingHistory) RatedBy(userID int64) map[int64]struct{} {
	if h == nil {
		return nil
	}
	return h.byUser[userID]
}

// HasUser 判断用户是否有评分记录。
func (h *RatingHistory) HasUser(userID int64) bool {
	if h == nil {
		return false
	}
	_, ok := h.byUser[userID]
	return ok
}

// Users 返回评分过的用户数。
func (h *RatingHistory) Users() int {
	if h == nil {
		return 0
	}
	return len(h.byUser)
}
