package models

import "time"

// Field order in these structs matches the documents already on disk; the
// JSON files are a compatibility contract with existing deployments.

// User represents a registered shopper, keyed by username in users.json
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"` // stored as received; hashing would break existing data files
}

// CartItem is one line of a cart: a product and how many of it
type CartItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Cart is the ordered list of line items belonging to one user.
// An empty cart is valid and distinct from an absent one.
type Cart []CartItem

// Purchase is an immutable checkout record. Items are a value snapshot of
// the cart at checkout time; later cart mutations never reach it.
type Purchase struct {
	ID    string     `json:"id"`
	Items []CartItem `json:"items"`
	Date  Timestamp  `json:"date"`
}

// ActivityEntry is one parsed line of the activity log
type ActivityEntry struct {
	Date     string `json:"date"`
	Username string `json:"username"`
	Activity string `json:"activity"`
}

// Activity tags written by the service itself
const (
	ActivityRegister       = "register"
	ActivityLogin          = "login"
	ActivityLogout         = "logout"
	ActivityAddToCart      = "add-to-cart"
	ActivityRemoveFromCart = "remove-from-cart"
	ActivityCheckout       = "checkout"
)

// isoMillis is the wire layout for purchase dates: ISO-8601 with millisecond
// precision in UTC, e.g. 2024-06-01T12:30:00.000Z
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// Timestamp marshals as an ISO-8601 UTC string with millisecond precision,
// matching the purchase dates already persisted in purchases.json.
type Timestamp time.Time

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).UTC().Format(isoMillis) + `"`), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}

func (t Timestamp) Time() time.Time {
	return time.Time(t)
}
