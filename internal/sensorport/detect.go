package sensorport

import (
	"fmt"
	"sort"
	"strings"

	"go.bug.st/serial/enumerator"
)

// listPorts is swapped out in tests.
var listPorts = enumerator.GetDetailedPortsList

// Candidate is a serial port that might have the sensor attached.
type Candidate struct {
	Path    string
	USB     bool
	VID     string
	PID     string
	Product string
}

func (c Candidate) String() string {
	if !c.USB {
		return c.Path
	}
	return fmt.Sprintf("%s (usb %s:%s %s)", c.Path, c.VID, c.PID, strings.TrimSpace(c.Product))
}

// Candidates lists attached serial ports, USB adapters first, each group
// sorted by path.
func Candidates() ([]Candidate, error) {
	ports, err := listPorts()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	out := make([]Candidate, 0, len(ports))
	for _, p := range ports {
		if p == nil || p.Name == "" {
			continue
		}
		out = append(out, Candidate{
			Path:    p.Name,
			USB:     p.IsUSB,
			VID:     p.VID,
			PID:     p.PID,
			Product: p.Product,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].USB != out[j].USB {
			return out[i].USB
		}
		return out[i].Path < out[j].Path
	})
	return out, nil
}

// Detect returns the path of the first USB serial port. The sensor is always
// attached through a USB adapter, so on-board UARTs are never chosen.
func Detect() (string, error) {
	candidates, err := Candidates()
	if err != nil {
		return "", err
	}
	for _, c := range candidates {
		if c.USB {
			if len(candidates) > 1 {
				logf("%d serial ports found, using %s", len(candidates), c)
			}
			return c.Path, nil
		}
	}
	return "", ErrNoDevice
}
