// Package hotmart is the client for the Hotmart payments API: token
// lifecycle for the OAuth client-credentials flow and cursor-paginated
// retrieval of the sales history.
package hotmart

// SalesHistoryResponse is one page of the sales history endpoint.
type SalesHistoryResponse struct {
	Items    []SaleItem `json:"items"`
	PageInfo PageInfo   `json:"page_info"`
}

// PageInfo carries the opaque cursor for the next page, when one exists.
type PageInfo struct {
	NextPageToken string `json:"next_page_token"`
}

// SaleItem is one sale as returned by the upstream API. Fields the upstream
// may omit are pointers so missing data is distinguishable from zero values.
type SaleItem struct {
	Product  Product  `json:"product"`
	Buyer    Buyer    `json:"buyer"`
	Purchase Purchase `json:"purchase"`
}

type Product struct {
	Name string `json:"name"`
}

type Buyer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type Purchase struct {
	Transaction  string   `json:"transaction"`
	Status       string   `json:"status"`
	ApprovedDate *int64   `json:"approved_date"`
	Price        *Price   `json:"price"`
	Payment      *Payment `json:"payment"`
}

type Price struct {
	Value        *float64 `json:"value"`
	CurrencyCode string   `json:"currency_code"`
}

type Payment struct {
	Method string `json:"method"`
	Type   string `json:"type"`
}
