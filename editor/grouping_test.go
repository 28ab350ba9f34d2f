package editor_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/trackmix/trackmix/editor"
)

func TestGroupingRoundTrip(t *testing.T) {
	for _, str := range []string{"0", "0-1_2", "2_0-1-3", "3-1_0_2", "0_1_2_3_4_5_6_7_8_9_10"} {
		t.Run(str, func(t *testing.T) {
			g, err := editor.ParseGrouping(str, 0)
			if err != nil {
				t.Fatalf("could not parse %q: %v", str, err)
			}
			if got := g.String(); got != str {
				t.Fatalf("round trip of %q gave %q", str, got)
			}
		})
	}
}

func TestParseGroupingAppendsMissing(t *testing.T) {
	cases := []struct {
		str  string
		n    int
		want string
	}{
		{"", 3, "0_1_2"},
		{"2-0", 4, "2-0_1_3"},
		{"5", 2, "5_0_1_2_3_4"},
		{"1-0", 2, "1-0"},
	}
	for _, c := range cases {
		g, err := editor.ParseGrouping(c.str, c.n)
		if err != nil {
			t.Fatalf("could not parse %q: %v", c.str, err)
		}
		if got := g.String(); got != c.want {
			t.Fatalf("ParseGrouping(%q, %d) = %q, expected %q", c.str, c.n, got, c.want)
		}
		if len(g) < c.n {
			t.Fatalf("ParseGrouping(%q, %d) has only %d entries", c.str, c.n, len(g))
		}
	}
}

func TestParseGroupingInvalid(t *testing.T) {
	for _, str := range []string{"a", "-0", "0-", "0--1", "0_0", "1-2-1", " 0"} {
		if _, err := editor.ParseGrouping(str, 3); !errors.Is(err, editor.ErrInvalidGrouping) {
			t.Fatalf("ParseGrouping(%q) error = %v, expected ErrInvalidGrouping", str, err)
		}
	}
}

func TestGroupingGroups(t *testing.T) {
	g, err := editor.ParseGrouping("2_0-1-3_4", 5)
	if err != nil {
		t.Fatal(err)
	}
	groups := g.Groups()
	want := [][]int{{2}, {0, 1, 3}, {4}}
	if !slices.EqualFunc(groups, want, slices.Equal) {
		t.Fatalf("groups %v, expected %v", groups, want)
	}
	if start, end := g.GroupAt(2); start != 1 || end != 4 {
		t.Fatalf("group at 2 is [%d, %d), expected [1, 4)", start, end)
	}
	if !g.Valid(5) || g.Valid(4) {
		t.Fatalf("validity of %v is wrong", g)
	}
}

func TestGroupingMove(t *testing.T) {
	cases := []struct {
		from, to  int
		str, want string
	}{
		{0, 3, "0-1_2_3", "2_0-1_3"},
		{3, 0, "0-1_2_3", "3_0-1_2"},
		{2, 1, "0-1_2", "0-1_2"},
		{1, 4, "0-1_2_3", "2_3_0-1"},
		{2, 0, "0_1-2_3", "1-2_0_3"},
	}
	for _, c := range cases {
		g, err := editor.ParseGrouping(c.str, 0)
		if err != nil {
			t.Fatal(err)
		}
		moved := g.Move(c.from, c.to)
		if got := moved.String(); got != c.want {
			t.Fatalf("moving %d to %d in %q gave %q, expected %q", c.from, c.to, c.str, got, c.want)
		}
		if !moved.Valid(len(g)) {
			t.Fatalf("moving %d to %d in %q gave invalid %v", c.from, c.to, c.str, moved)
		}
		if g.String() != c.str {
			t.Fatalf("Move modified the original grouping")
		}
	}
}
