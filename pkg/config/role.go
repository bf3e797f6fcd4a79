package config

import (
	"fmt"
	"strings"
)

// Role selects which subsystems a process instance runs.
type Role int

const (
	// RoleNone loads the config and fetches region data, then exits.
	RoleNone Role = 0
	// RoleRPC runs the front-end listener.
	RoleRPC Role = 1 << iota
	// RoleWorker runs the trip worker pool.
	RoleWorker
	// RoleBoth runs the front end and the worker pool in one process.
	RoleBoth = RoleRPC | RoleWorker
)

// ParseRole maps the CLI role argument to a Role. The empty string is
// RoleNone.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return RoleNone, nil
	case "rpc":
		return RoleRPC, nil
	case "worker":
		return RoleWorker, nil
	case "both":
		return RoleBoth, nil
	default:
		return 0, fmt.Errorf("unrecognized role %q (expected rpc, worker, both or none)", s)
	}
}

// Has reports whether the role includes the given subsystem.
func (r Role) Has(sub Role) bool { return r&sub != 0 }

func (r Role) String() string {
	switch r {
	case RoleRPC:
		return "rpc"
	case RoleWorker:
		return "worker"
	case RoleBoth:
		return "both"
	default:
		return "none"
	}
}

// Algorithm is the routing-index flavour the engines are built with.
type Algorithm int

const (
	// AlgorithmCH is contraction hierarchies.
	AlgorithmCH Algorithm = iota
	// AlgorithmMLD is multi-level Dijkstra.
	AlgorithmMLD
)

// ParseAlgorithm maps the config string, including the long-form synonyms,
// to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ch", "contraction hierarchies", "contraction_hierarchies", "contraction-hierarchies":
		return AlgorithmCH, nil
	case "mld", "multi-level dijkstra", "multi-level-dijkstra", "multi_level_dijkstra":
		return AlgorithmMLD, nil
	default:
		return 0, fmt.Errorf("unknown routing algorithm %q", s)
	}
}

func (a Algorithm) String() string {
	if a == AlgorithmMLD {
		return "mld"
	}
	return "ch"
}
