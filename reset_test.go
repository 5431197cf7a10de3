package livefen

import (
	"testing"

	"github.com/corentings/chess/v2"
	"go.viam.com/test"

	"livefen/internal/fen"
)

func stateFrom(t *testing.T, s, graveyard string) *resetState {
	t.Helper()
	b, err := fen.Decode(s)
	test.That(t, err, test.ShouldBeNil)
	st, err := newResetState(b, graveyard)
	test.That(t, err, test.ShouldBeNil)
	return st
}

func TestReset1(t *testing.T) {
	theState := stateFrom(t, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR", "")

	from, to, err := nextResetMove(theState)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, from.String(), test.ShouldEqual, "e4")
	test.That(t, to.String(), test.ShouldEqual, "e2")
}

func TestReset2(t *testing.T) {
	theState := stateFrom(t, "rnbqkbnr/ppp1pppp/8/3p4/4P3/5N2/PPP2PPP/RNBQKB1R", "P")

	// -

	from, to, err := nextResetMove(theState)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, from.String(), test.ShouldEqual, "f3")
	test.That(t, to.String(), test.ShouldEqual, "g1")

	err = theState.applyMove(from, to)
	test.That(t, err, test.ShouldBeNil)

	// -

	from, to, err = nextResetMove(theState)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, from.String(), test.ShouldEqual, "e4")
	test.That(t, to.String(), test.ShouldEqual, "d2")

	err = theState.applyMove(from, to)
	test.That(t, err, test.ShouldBeNil)

	// -

	from, to, err = nextResetMove(theState)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, squareToString(from), test.ShouldEqual, "X0")
	test.That(t, to.String(), test.ShouldEqual, "e2")

	test.That(t, len(theState.graveyard), test.ShouldEqual, 1)
	err = theState.applyMove(from, to)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(theState.graveyard), test.ShouldEqual, 0)

	// -

	from, to, err = nextResetMove(theState)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, squareToString(from), test.ShouldEqual, "d5")
	test.That(t, to.String(), test.ShouldEqual, "d7")

	err = theState.applyMove(from, to)
	test.That(t, err, test.ShouldBeNil)

	// -

	from, to, err = nextResetMove(theState)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, from, test.ShouldEqual, chess.Square(-1))
	test.That(t, to, test.ShouldEqual, chess.Square(-1))
}

func TestResetPlan(t *testing.T) {
	b, err := fen.Decode("rnbqkbnr/ppp1pppp/8/3p4/4P3/5N2/PPP2PPP/RNBQKB1R")
	test.That(t, err, test.ShouldBeNil)

	plan, err := ResetPlan(b, "P")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, plan, test.ShouldResemble, [][2]string{
		{"f3", "g1"}, {"e4", "d2"}, {"X0", "e2"}, {"d5", "d7"},
	})

	_, err = ResetPlan(b, "")
	test.That(t, err, test.ShouldNotBeNil)

	_, err = ResetPlan(b, "?")
	test.That(t, err, test.ShouldNotBeNil)
}
