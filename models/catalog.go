package models

// Product is a menu item served by the canteen backend. The order window
// arrives in UTC and is converted to station-local time at catalog load;
// everything downstream (availability, display) works on the local window.
type Product struct {
	ID          string      `json:"_id"`
	Name        string      `json:"name"`
	Price       float64     `json:"price"`
	OrderWindow OrderWindow `json:"orderWindow"`
	Options     []string    `json:"options"`
	ImageURL    string      `json:"imageURL,omitempty"`
}

// Option is an add-on that can accompany a product (sauce, topping, etc.).
// Options have no order window; they follow the product they are bought with.
type Option struct {
	ID       string  `json:"_id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"imageURL,omitempty"`
}

// Activity is an event the kiosk takes orders for.
type Activity struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// Room is a location orders can be delivered to, used when the station runs
// in room mode instead of activity mode.
type Room struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// ActivityRef is a reference to an activity by id, as embedded in a kiosk.
type ActivityRef struct {
	ID string `json:"_id"`
}

// Kiosk is the identity of this terminal as known by the backend, including
// the activities it is allowed to take orders for.
type Kiosk struct {
	ID         string        `json:"_id"`
	Name       string        `json:"name"`
	Activities []ActivityRef `json:"activities"`
}
