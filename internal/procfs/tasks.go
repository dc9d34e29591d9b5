package procfs

import "github.com/Dicklesworthstone/toplite/internal/model"

// ScanTaskStates counts processes by run state. It fails only when the
// process list itself cannot be read; processes that exit mid-scan are skipped.
func (fs FS) ScanTaskStates() (model.TaskCounts, error) {
	var tc model.TaskCounts
	pids, err := fs.PIDs()
	if err != nil {
		return tc, err
	}
	for _, pid := range pids {
		data, err := fs.readFile(pidDir(pid), "stat")
		if err != nil {
			continue
		}
		st, _, err := parseStatHead(data)
		if err != nil {
			continue
		}
		countState(&tc, st.State)
	}
	return tc, nil
}

func countState(tc *model.TaskCounts, state byte) {
	tc.Total++
	switch state {
	case 'R':
		tc.Running++
	case 'S', 'D', 'I':
		tc.Sleeping++
	case 'T', 't':
		tc.Stopped++
	case 'Z':
		tc.Zombie++
	}
}
