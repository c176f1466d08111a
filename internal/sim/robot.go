package sim

import (
	"fmt"
	"strconv"

	"morphgen/internal/grammar"
)

// JointType enumerates how a link attaches to its parent.
type JointType string

const (
	JointFixed JointType = "fixed"
	JointHinge JointType = "hinge"
)

// Link is one rigid segment of a robot.
type Link struct {
	Name   string
	Parent int // index into Robot.Links, -1 for the root
	Joint  JointType
	Length float64
	Mass   float64
}

// Robot is a simulatable articulated body: a tree of links rooted at
// Links[0]. DofCount counts the actuated (non-fixed) joints.
type Robot struct {
	Name  string
	Links []Link
}

// DofCount returns the number of actuated degrees of freedom.
func (r *Robot) DofCount() int {
	n := 0
	for _, l := range r.Links {
		if l.Parent >= 0 && l.Joint != JointFixed {
			n++
		}
	}
	return n
}

// TotalLength returns the summed link lengths, used for sizing the AABB.
func (r *Robot) TotalLength() float64 {
	total := 0.0
	for _, l := range r.Links {
		total += l.Length
	}
	return total
}

const (
	defaultLinkLength = 0.1
	defaultLinkMass   = 1.0
)

// BuildRobot converts a derived design graph into a robot.
//
// Each graph node becomes a link; each edge attaches its target node to
// its source node with the joint type named by the edge's "joint"
// attribute (hinge when absent). Node attributes "length" and "mass"
// size the link. The first node is the root; nodes unreachable from it are
// an error, as is a node with two parents.
func BuildRobot(g *grammar.Graph) (*Robot, error) {
	nodes := g.AllNodes()
	if len(nodes) == 0 {
		return nil, fmt.Errorf("build robot from %q: graph has no nodes", g.Name)
	}

	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		index[n.ID] = i
	}

	parent := make([]int, len(nodes))
	joint := make([]JointType, len(nodes))
	for i := range parent {
		parent[i] = -1
	}
	for _, e := range g.AllEdges() {
		ci, ok := index[e.To]
		if !ok {
			return nil, fmt.Errorf("build robot from %q: edge references unknown node %q", g.Name, e.To)
		}
		pi, ok := index[e.From]
		if !ok {
			return nil, fmt.Errorf("build robot from %q: edge references unknown node %q", g.Name, e.From)
		}
		if parent[ci] != -1 {
			return nil, fmt.Errorf("build robot from %q: node %q has multiple parents", g.Name, e.To)
		}
		parent[ci] = pi
		joint[ci] = jointType(e.Attrs)
	}

	if parent[0] != -1 {
		return nil, fmt.Errorf("build robot from %q: root node %q has a parent", g.Name, nodes[0].ID)
	}

	robot := &Robot{Name: g.Name}
	for i, n := range nodes {
		if i > 0 && parent[i] == -1 {
			return nil, fmt.Errorf("build robot from %q: node %q is not attached to the robot", g.Name, n.ID)
		}
		// Bounded walk to the root guards against edge cycles.
		for hop, p := 0, parent[i]; p != -1; hop, p = hop+1, parent[p] {
			if hop > len(nodes) {
				return nil, fmt.Errorf("build robot from %q: node %q is part of a cycle", g.Name, n.ID)
			}
		}
		robot.Links = append(robot.Links, Link{
			Name:   n.ID,
			Parent: parent[i],
			Joint:  joint[i],
			Length: floatAttr(n.Attrs, "length", defaultLinkLength),
			Mass:   floatAttr(n.Attrs, "mass", defaultLinkMass),
		})
	}
	return robot, nil
}

func jointType(attrs map[string]string) JointType {
	switch attrs["joint"] {
	case "fixed":
		return JointFixed
	case "hinge", "":
		return JointHinge
	default:
		return JointHinge
	}
}

func floatAttr(attrs map[string]string, key string, def float64) float64 {
	raw, ok := attrs[key]
	if !ok {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}
