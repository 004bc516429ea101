package events

type Category int

const (
	TECHNICAL Category = iota
	NON_TECHNICAL
)

func (c Category) String() string {
	switch c {
	case TECHNICAL:
		return "technical"
	case NON_TECHNICAL:
		return "non-technical"
	default:
		return "unknown"
	}
}
