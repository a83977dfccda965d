// Package testset loads test-set files for the Test request.
//
// A test set is a YAML document listing quadratic equations together with the
// solution each is expected to have:
//
//	tests:
//	  - name: two roots
//	    a: 1
//	    b: -3
//	    c: 2
//	    roots: [1, 2]
//	  - name: identity
//	    a: 0
//	    b: 0
//	    c: 0
//	    infinite: true
//
// Load failures are classified with errdefs: a file that cannot be read is
// [errdefs.ErrNotFound], a file that cannot be parsed is
// [errdefs.ErrInvalidArgument].
package testset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/containerd/errdefs"
	"gopkg.in/yaml.v3"

	"github.com/cruciblehq/quadd/internal/protocol"
)

var ErrTestSet = errors.New("test set error")

// An ordered, immutable list of test cases.
type TestSet struct {
	Path  string // File the set was loaded from.
	Cases []Case // Cases in file order.
}

// Returns the number of cases.
func (s *TestSet) Len() int {
	return len(s.Cases)
}

// Returns the cases as wire test cases, in file order.
func (s *TestSet) TestCases() []protocol.TestCase {
	out := make([]protocol.TestCase, len(s.Cases))
	for i, c := range s.Cases {
		out[i] = c.TestCase
	}
	return out
}

// A named test case.
type Case struct {
	Name string
	protocol.TestCase
}

type document struct {
	Tests []entry `yaml:"tests"`
}

type entry struct {
	Name     string    `yaml:"name"`
	A        *float64  `yaml:"a"`
	B        *float64  `yaml:"b"`
	C        *float64  `yaml:"c"`
	Roots    []float64 `yaml:"roots"`
	Infinite bool      `yaml:"infinite"`
}

// Reads and parses the test set at path.
func Load(path string) (*TestSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %w", ErrTestSet, errdefs.ErrNotFound, err)
	}

	set, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	set.Path = path
	return set, nil
}

// Parses a test set from YAML.
func Parse(data []byte) (*TestSet, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, invalid("%s", err.Error())
	}

	set := &TestSet{Cases: make([]Case, 0, len(doc.Tests))}
	for i, e := range doc.Tests {
		c, err := e.toCase(i)
		if err != nil {
			return nil, err
		}
		set.Cases = append(set.Cases, c)
	}
	return set, nil
}

func (e entry) toCase(index int) (Case, error) {
	label := e.Name
	if label == "" {
		label = fmt.Sprintf("#%d", index+1)
	}

	if e.A == nil || e.B == nil || e.C == nil {
		return Case{}, invalid("test %s: coefficients a, b and c are required", label)
	}
	if e.Infinite && len(e.Roots) > 0 {
		return Case{}, invalid("test %s: infinite excludes roots", label)
	}
	if len(e.Roots) > 2 {
		return Case{}, invalid("test %s: at most two roots, got %d", label, len(e.Roots))
	}

	roots := append([]float64(nil), e.Roots...)
	sort.Float64s(roots)

	expected := protocol.Solution{Count: protocol.RootCount(len(roots))}
	switch {
	case e.Infinite:
		expected.Count = protocol.InfiniteRoots
	case len(roots) == 2:
		expected.X1, expected.X2 = roots[0], roots[1]
	case len(roots) == 1:
		expected.X1 = roots[0]
	}

	return Case{
		Name: label,
		TestCase: protocol.TestCase{
			Coefficients: protocol.Coefficients{A: *e.A, B: *e.B, C: *e.C},
			Expected:     expected,
		},
	}, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", ErrTestSet, errdefs.ErrInvalidArgument, fmt.Sprintf(format, args...))
}
