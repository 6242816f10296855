package domain

import "time"

// CartItem is a session-scoped cart entry cached locally until the
// platform cart API acknowledges it.
type CartItem struct {
	ID        string    `json:"id"`
	BookID    string    `json:"book_id"`
	Title     string    `json:"title,omitempty"`
	Quantity  int       `json:"quantity"`
	UnitPrice int64     `json:"unit_price"`
	AddedAt   time.Time `json:"added_at"`
}

func (i *CartItem) Valid() bool {
	return i != nil && i.BookID != "" && i.Quantity > 0
}
