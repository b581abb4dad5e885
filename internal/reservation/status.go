package reservation

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPrepared  Status = "PREPARED"
	StatusPickedUp  Status = "PICKED_UP"
	StatusCancelled Status = "CANCELLED"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusPrepared: true, StatusCancelled: true},
	StatusPrepared:  {StatusPickedUp: true},
	StatusPickedUp:  {},
	StatusCancelled: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func (s Status) Terminal() bool {
	return len(validNext[s]) == 0
}
