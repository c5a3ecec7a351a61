package solver

import (
	"reflect"
	"sort"
	"testing"
)

func TestSolve(t *testing.T) {
	tests := []struct {
		name string
		hand string
		want []int
	}{
		{
			name: "triplets with a side run",
			hand: "1112223334",
			// 3334 extends into any of 2345: e.g. +2 -> 111 222 234 33,
			// +4 -> 111 222 333 44.
			want: []int{2, 3, 4, 5},
		},
		{
			name: "three runs plus a floater waits on the floater",
			hand: "1234567895",
			want: []int{5},
		},
		{
			name: "isolated low pair with high triplets",
			hand: "1155566677",
			// +7 -> 11 555 666 777; +1 -> 111 555 666 77.
			want: []int{1, 7},
		},
		{
			name: "pure runs multi-wait",
			hand: "1123456789",
			want: []int{1, 4, 7},
		},
		{
			name: "no completing tile",
			hand: "1112224779",
			want: nil,
		},
		{
			name: "rank at four copies is not a candidate",
			hand: "1111222233",
			// +3 -> 111 123 222 33, +4 -> 111 123 234 22; 1 and 2 are
			// exhausted at four copies.
			want: []int{3, 4},
		},
		{
			name: "empty challenge",
			hand: "",
			want: nil,
		},
		{
			name: "hand size not completable",
			hand: "111222333",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Solve(tt.hand)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Solve(%q) = %v, want %v", tt.hand, got, tt.want)
			}
			if !sort.IntsAreSorted(got) {
				t.Errorf("Solve(%q) not ascending: %v", tt.hand, got)
			}
			seen := map[int]bool{}
			for _, r := range got {
				if seen[r] {
					t.Errorf("Solve(%q) has duplicate %d", tt.hand, r)
				}
				seen[r] = true
			}
		})
	}
}

func TestSolveNineGates(t *testing.T) {
	// 1112345678999 in any order waits on every rank.
	got := Solve("1234567891199")
	want := []int{1, 2, 3, 4, 5, 6, 7, 8, 9}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Solve = %v, want %v", got, want)
	}
}

func TestAnswer(t *testing.T) {
	tests := []struct {
		hand string
		want string
	}{
		{"1234567895", "5"},
		{"1123456789", "147"},
		{"1112224779", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Answer(tt.hand); got != tt.want {
			t.Errorf("Answer(%q) = %q, want %q", tt.hand, got, tt.want)
		}
	}
}
