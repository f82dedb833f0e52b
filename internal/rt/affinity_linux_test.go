//go:build linux

package rt

import (
	"runtime"
	"testing"

	"golang.org/x/sys/unix"
)

func TestSection_PinsAndRestoresAffinity(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var before unix.CPUSet
	if err := unix.SchedGetaffinity(0, &before); err != nil {
		t.Skipf("sched_getaffinity: %v", err)
	}
	cpu := -1
	for i := 0; i < 1024; i++ {
		if before.IsSet(i) {
			cpu = i
			break
		}
	}
	if cpu < 0 {
		t.Skip("no cpu in affinity mask")
	}

	var inside unix.CPUSet
	var after unix.CPUSet
	Section{CPU: cpu}.Run(func() {
		if err := unix.SchedGetaffinity(0, &inside); err != nil {
			t.Errorf("sched_getaffinity: %v", err)
		}
	})
	if inside.Count() != 1 || !inside.IsSet(cpu) {
		t.Errorf("affinity inside = %d cpus, want only cpu %d", inside.Count(), cpu)
	}

	if err := unix.SchedGetaffinity(0, &after); err != nil {
		t.Fatalf("sched_getaffinity: %v", err)
	}
	if after.Count() != before.Count() {
		t.Errorf("affinity after Run = %d cpus, want %d", after.Count(), before.Count())
	}

	restore, err := pin(cpu)
	if err != nil {
		t.Fatalf("pin: %v", err)
	}
	restore()
	if err := unix.SchedGetaffinity(0, &after); err != nil {
		t.Fatalf("sched_getaffinity: %v", err)
	}
	if after.Count() != before.Count() {
		t.Errorf("affinity after restore = %d cpus, want %d", after.Count(), before.Count())
	}
}
