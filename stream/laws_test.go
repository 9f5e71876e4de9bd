package stream_test

import (
	"testing"

	"github.com/delaneyj/streamparty/stream"
	"pgregory.net/rapid"
)

func collect(t *rapid.T, s *stream.Stream[int]) ([]int, int) {
	r := newRecorder[int]()
	s.SubscribeWith(r)
	if len(r.errs) > 0 {
		t.Fatalf("unexpected error: %v", r.errs[0])
	}
	if r.items == nil {
		r.items = []int{}
	}
	return r.items, r.completes
}

// filter(true) should be identity
func TestLawFilterTrueIsIdentity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		items := rapid.SliceOf(rapid.Int()).Draw(t, "items")

		got, completes := collect(t, stream.FromSlice(items).Filter(func(int) bool { return true }))
		want, _ := collect(t, stream.FromSlice(items))

		if completes != 1 {
			t.Fatalf("expected completion, got %d", completes)
		}
		assertSameInts(t, want, got)
	})
}

// map(id) should be identity
func TestLawMapIdentityIsIdentity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		items := rapid.SliceOf(rapid.Int()).Draw(t, "items")

		got, _ := collect(t, stream.Map(stream.FromSlice(items), func(v int) int { return v }))
		assertSameInts(t, items, got)
	})
}

// take(n).take(m) should equal take(min(n,m))
func TestLawTakeTakeFuses(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		items := rapid.SliceOf(rapid.Int()).Draw(t, "items")
		n := rapid.IntRange(1, 20).Draw(t, "n")
		m := rapid.IntRange(1, 20).Draw(t, "m")

		got, _ := collect(t, stream.FromSlice(items).Take(n).Take(m))
		want, _ := collect(t, stream.FromSlice(items).Take(min(n, m)))
		assertSameInts(t, want, got)
	})
}

// skip(n).skip(m) should equal skip(n+m)
func TestLawSkipSkipAdds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		items := rapid.SliceOf(rapid.Int()).Draw(t, "items")
		n := rapid.IntRange(0, 20).Draw(t, "n")
		m := rapid.IntRange(0, 20).Draw(t, "m")

		got, _ := collect(t, stream.FromSlice(items).Skip(n).Skip(m))
		want, _ := collect(t, stream.FromSlice(items).Skip(n+m))
		assertSameInts(t, want, got)
	})
}

// startWith(a).startWith(b) should equal startWith(b, a)
func TestLawStartWithComposes(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		items := rapid.SliceOf(rapid.Int()).Draw(t, "items")
		a := rapid.Int().Draw(t, "a")
		b := rapid.Int().Draw(t, "b")

		got, _ := collect(t, stream.FromSlice(items).StartWith(a).StartWith(b))
		want, _ := collect(t, stream.FromSlice(items).StartWith(b, a))
		assertSameInts(t, want, got)
	})
}

// an order-preserving operator should emit a subsequence of its input
func TestLawFilterEmitsSubsequence(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		items := rapid.SliceOf(rapid.IntRange(0, 50)).Draw(t, "items")
		threshold := rapid.IntRange(0, 50).Draw(t, "threshold")

		got, _ := collect(t, stream.FromSlice(items).Filter(func(v int) bool { return v >= threshold }))

		i := 0
		for _, v := range items {
			if i < len(got) && got[i] == v && v >= threshold {
				i++
			}
		}
		if i != len(got) {
			t.Fatalf("%v is not an in-order subsequence of %v", got, items)
		}
	})
}

func assertSameInts(t *rapid.T, want, got []int) {
	if len(want) != len(got) {
		t.Fatalf("length mismatch: want %v, got %v", want, got)
	}
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("mismatch at %d: want %v, got %v", i, want, got)
		}
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
