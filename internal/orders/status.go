package orders

import "fmt"

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusConfirmed: true, StatusCancelled: true},
	StatusConfirmed: {StatusDelivered: true, StatusCancelled: true},
	StatusDelivered: {},
	StatusCancelled: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := validNext[st]; !ok {
		return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
	}
	return st, nil
}
