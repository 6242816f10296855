package transport

type LoginRequest struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

type UserPatchRequest struct {
	Email    *string           `json:"email"`
	Name     *string           `json:"name"`
	Roles    []string          `json:"roles"`
	Metadata map[string]string `json:"metadata"`
}

type CartItemRequest struct {
	BookID    string `json:"book_id"`
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

type PreferenceRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
