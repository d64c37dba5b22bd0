package crisis

import "time"

// SupportMessage is shown to a participant whose message triggered the
// detector.
const SupportMessage = "We noticed you might be going through a difficult time. Help is available."

type Resource struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

// DefaultResources is the hotline list sent privately to the sender.
var DefaultResources = []Resource{
	{Name: "National Suicide Prevention", Number: "9152987821"},
	{Name: "LGBTQ+ Crisis Support", Number: "+91-9999-46-5428"},
	{Name: "Emergency Services", Number: "112"},
	{Name: "Vandrevala Foundation", Number: "1860-2662-345"},
}

// Support is the private crisis-detected payload.
type Support struct {
	Message   string     `json:"message"`
	Resources []Resource `json:"resources"`
	Timestamp time.Time  `json:"timestamp"`
}

func NewSupport(at time.Time) Support {
	resources := make([]Resource, len(DefaultResources))
	copy(resources, DefaultResources)
	return Support{
		Message:   SupportMessage,
		Resources: resources,
		Timestamp: at,
	}
}
