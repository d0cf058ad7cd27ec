package supervisor

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// readStatm reads the virtual-memory and resident-set sizes, in pages,
// from /proc/<pid>/statm. Field order is size (total vm) then resident.
func readStatm(pid int) (vmPages, rssPages int64, err error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/statm", pid))
	if err != nil {
		return 0, 0, err
	}
	fields := strings.Fields(string(data))
	if len(fields) < 2 {
		return 0, 0, fmt.Errorf("unexpected statm format %q", data)
	}
	vm, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, 0, err
	}
	rss, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return 0, 0, err
	}
	return vm, rss, nil
}
