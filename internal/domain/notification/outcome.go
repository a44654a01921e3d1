package notification

// Category names one recipient collection in the directory. Direct
// addressing tries categories in a fixed priority order and uses the first
// hit.
type Category string

const (
	// CategoryResidents is searched first for direct addressing.
	CategoryResidents Category = "residents"
	// CategoryWorkers is searched second.
	CategoryWorkers Category = "workers"
	// CategoryAuthorities is searched last.
	CategoryAuthorities Category = "authorities"
)

// Outcome is the per-target result of one push call, as reported by the
// provider.
type Outcome struct {
	// SuccessCount is how many targets accepted the push.
	SuccessCount int
	// FailureCount is how many targets rejected it.
	FailureCount int
	// Failures maps a failed target (token or expression) to the provider's
	// error string.
	Failures map[string]string
}

// Announcement is a broadcast notice from the authority to a role audience.
type Announcement struct {
	// Title is the display title.
	Title string
	// Description is the display body.
	Description string
	// Category labels the notice (General, Maintenance, ...).
	Category string
	// TargetAudience is the role the notice addresses.
	TargetAudience Role
	// Priority is the logical priority.
	Priority string
}
