package monitor

import "time"

type Status struct {
	Identity   bool      `json:"identity"`
	LocalStore bool      `json:"local_store"`
	CartItems  int       `json:"cart_items"`
	LastCheck  time.Time `json:"last_check"`
}
