package models

// USStates are the 50 state names accepted on the intake form, in display order.
var USStates = []string{
	"Alabama", "Alaska", "Arizona", "Arkansas", "California",
	"Colorado", "Connecticut", "Delaware", "Florida", "Georgia",
	"Hawaii", "Idaho", "Illinois", "Indiana", "Iowa",
	"Kansas", "Kentucky", "Louisiana", "Maine", "Maryland",
	"Massachusetts", "Michigan", "Minnesota", "Mississippi", "Missouri",
	"Montana", "Nebraska", "Nevada", "New Hampshire", "New Jersey",
	"New Mexico", "New York", "North Carolina", "North Dakota", "Ohio",
	"Oklahoma", "Oregon", "Pennsylvania", "Rhode Island", "South Carolina",
	"South Dakota", "Tennessee", "Texas", "Utah", "Vermont",
	"Virginia", "Washington", "West Virginia", "Wisconsin", "Wyoming",
}

var usStateSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(USStates))
	for _, s := range USStates {
		m[s] = struct{}{}
	}
	return m
}()

// IsUSState reports whether name is one of USStates, compared exactly.
func IsUSState(name string) bool {
	_, ok := usStateSet[name]
	return ok
}
