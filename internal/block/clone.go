package block

import "github.com/mohae/deepcopy"

// CloneState returns a deep copy of st that shares no slices with it.
// Payloads are copied through their concrete value types.
func CloneState(st State) State {
	return deepcopy.Copy(st).(State)
}
