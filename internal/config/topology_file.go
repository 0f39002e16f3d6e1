// Package config loads the plaintext topology configuration file consumed
// by the controller at startup (spec.md §6). This parser is one of the
// "external collaborators" spec.md §1 calls out as out of scope for the
// core protocol — it is implemented here only so the controller binary has
// something real to load.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/okdaichi/sdnctl/internal/topology"
)

// LoadTopologyFile parses a topology config file:
//
//	N
//	a b cost
//	...
//
// Line 1 is the switch count N. Each remaining non-blank line is an
// undirected edge (a, b, cost). Unlisted pairs default to Inf; self-pairs
// default to 0 (spec.md §6). A parse failure is fatal at startup
// (spec.md §7) — the caller is expected to exit non-zero on error.
func LoadTopologyFile(path string) (*topology.Graph, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("config: open topology file %q: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)

	n, err := nextInt(scanner, "switch count")
	if err != nil {
		return nil, 0, err
	}
	if n <= 0 {
		return nil, 0, fmt.Errorf("config: switch count must be positive, got %d", n)
	}

	g := topology.NewGraph(n)

	lineNo := 1
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, 0, fmt.Errorf("config: line %d: expected 3 fields \"a b cost\", got %d", lineNo, len(fields))
		}

		a, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, 0, fmt.Errorf("config: line %d: invalid switch id %q: %w", lineNo, fields[0], err)
		}
		b, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, 0, fmt.Errorf("config: line %d: invalid switch id %q: %w", lineNo, fields[1], err)
		}
		cost, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, 0, fmt.Errorf("config: line %d: invalid cost %q: %w", lineNo, fields[2], err)
		}
		if a < 0 || a >= n || b < 0 || b >= n {
			return nil, 0, fmt.Errorf("config: line %d: switch id out of range [0,%d)", lineNo, n)
		}
		if cost <= 0 {
			return nil, 0, fmt.Errorf("config: line %d: cost must be positive, got %d", lineNo, cost)
		}

		g.SetEdge(a, b, topology.Cost(cost))
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("config: read topology file: %w", err)
	}

	if !g.Symmetric() {
		return nil, 0, fmt.Errorf("config: topology graph is not symmetric")
	}

	return g, n, nil
}

func nextInt(scanner *bufio.Scanner, what string) (int, error) {
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		v, err := strconv.Atoi(line)
		if err != nil {
			return 0, fmt.Errorf("config: invalid %s %q: %w", what, line, err)
		}
		return v, nil
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("config: read %s: %w", what, err)
	}
	return 0, fmt.Errorf("config: missing %s", what)
}
