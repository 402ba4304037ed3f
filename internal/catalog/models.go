package catalog

// Product mirrors the record the shop admin posts. CategoryID is advisory;
// nothing checks that the category exists.
type Product struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	OriginalPrice float64 `json:"original_price"`
	Discount      int     `json:"discount"`
	Image         string  `json:"image"`
	CategoryID    string  `json:"category_id,omitempty"`
	InStock       bool    `json:"in_stock"`
	Rating        float64 `json:"rating"`
	ReviewsCount  int     `json:"reviews_count"`
	CostPrice     float64 `json:"tannarxi"`
}

type Category struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Icon         string `json:"icon"`
	Image        string `json:"image"`
	ProductCount int    `json:"productCount"`
}

type User struct {
	ID         string `json:"id"`
	TelegramID int64  `json:"telegram_id,omitempty"`
	Username   string `json:"username,omitempty"`
	FullName   string `json:"full_name,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Address    string `json:"address,omitempty"`
	IsAdmin    bool   `json:"is_admin,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}
