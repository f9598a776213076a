package tracker

// LoadState is the per-AssetID state machine (spec §4.5):
//
//	NotRequested --load()-->        Loading
//	Loading      --bytes arrive-->  Loaded
//	Loading      --error-->         Error
//	Loading      --not found-->     DoesNotExist
//	Loaded       --refcount==0-->   NotRequested   (after grace period)
//	Loaded       --hot reload-->    Loaded
//	Error/DoesNotExist --load()-->  Loading
type LoadState int

const (
	NotRequested LoadState = iota
	Loading
	Loaded
	Error
	DoesNotExist
)

func (s LoadState) String() string {
	switch s {
	case NotRequested:
		return "not_requested"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Error:
		return "error"
	case DoesNotExist:
		return "does_not_exist"
	default:
		return "unknown"
	}
}
