package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// navigator turns the core's navigation signals into a breadcrumb trail for
// the shell prompt.
type navigator struct {
	out io.Writer

	mu    sync.Mutex
	trail []string
}

func newNavigator(out io.Writer) *navigator {
	return &navigator{out: out}
}

// Push enters a detail view.
func (n *navigator) Push(crumb string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.trail = append(n.trail, crumb)
}

// ToAuthenticated resets the trail to the signed-in root.
func (n *navigator) ToAuthenticated() {
	n.mu.Lock()
	n.trail = nil
	n.mu.Unlock()
	fmt.Fprintln(n.out, "Signed in.")
}

// ToLogin resets the trail and asks the user to sign in.
func (n *navigator) ToLogin() {
	n.mu.Lock()
	n.trail = nil
	n.mu.Unlock()
	fmt.Fprintln(n.out, "Signed out. Use 'login' to sign in again.")
}

// Back pops one crumb, if any.
func (n *navigator) Back() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.trail) > 0 {
		n.trail = n.trail[:len(n.trail)-1]
	}
}

// Path renders the trail, e.g. "hike:H1/route:R2".
func (n *navigator) Path() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return strings.Join(n.trail, "/")
}
