package controller

import (
	"net/http/httptest"
	"testing"

	. "github.com/fulldump/biff"
)

func mark(trace *[]string, name string) Callback {
	return func(c *Context) error {
		*trace = append(*trace, name)
		return nil
	}
}

func TestCallbackExecutionOrder(t *testing.T) {

	trace := []string{}
	a := New("test.chain", mark(&trace, "body")).
		Before(mark(&trace, "before1"), mark(&trace, "before2")).
		After(mark(&trace, "after1"), mark(&trace, "after2"))

	_, err := a.Call(httptest.NewRequest("GET", "/", nil))

	AssertNil(err)
	AssertEqual(trace, []string{"before1", "before2", "body", "after1", "after2"})
}

func TestInsertionModes(t *testing.T) {

	trace := []string{}
	a := New("test.chain", mark(&trace, "body")).
		Before(mark(&trace, "plain1")).
		AppendBefore(mark(&trace, "append1")).
		PrependBefore(mark(&trace, "prepend1")).
		Before(mark(&trace, "plain2")).
		PrependBefore(mark(&trace, "prepend2"))

	_, err := a.Call(httptest.NewRequest("GET", "/", nil))

	AssertNil(err)
	AssertEqual(trace, []string{"prepend1", "prepend2", "plain1", "plain2", "append1", "body"})
}

func TestAfterInsertionModes(t *testing.T) {

	trace := []string{}
	a := New("test.chain", mark(&trace, "body")).
		After(mark(&trace, "plain")).
		AppendAfter(mark(&trace, "append")).
		PrependAfter(mark(&trace, "prepend"))

	_, err := a.Call(httptest.NewRequest("GET", "/", nil))

	AssertNil(err)
	AssertEqual(trace, []string{"body", "prepend", "plain", "append"})
}

func TestAncestorCallbacksRunFirst(t *testing.T) {

	trace := []string{}
	parent := New("test.parent", mark(&trace, "body")).
		Before(mark(&trace, "parent"))
	child := parent.Derive("test.child").
		Before(mark(&trace, "child"))

	_, err := child.Call(httptest.NewRequest("GET", "/", nil))

	AssertNil(err)
	AssertEqual(trace, []string{"parent", "child", "body"})
}

func TestChildPrependBeatsParentPlain(t *testing.T) {

	trace := []string{}
	parent := New("test.parent", mark(&trace, "body")).
		Before(mark(&trace, "parent"))
	child := parent.Derive("test.child").
		PrependBefore(mark(&trace, "child"))

	_, err := child.Call(httptest.NewRequest("GET", "/", nil))

	AssertNil(err)
	AssertEqual(trace, []string{"child", "parent", "body"})
}

func TestThreeLevelLineage(t *testing.T) {

	trace := []string{}
	grand := New("test.grand", mark(&trace, "body")).
		Before(mark(&trace, "grand"))
	parent := grand.Derive("test.parent").
		Before(mark(&trace, "parent"))
	child := parent.Derive("test.child").
		Before(mark(&trace, "child"))

	_, err := child.Call(httptest.NewRequest("GET", "/", nil))

	AssertNil(err)
	AssertEqual(trace, []string{"grand", "parent", "child", "body"})
}

func TestChildCapturesParentAtFirstCall(t *testing.T) {

	trace := []string{}
	parent := New("test.parent", mark(&trace, "body")).
		Before(mark(&trace, "early"))
	child := parent.Derive("test.child")

	// declared after Derive but before the child ever ran
	parent.Before(mark(&trace, "late"))

	_, err := child.Call(httptest.NewRequest("GET", "/", nil))
	AssertNil(err)
	AssertEqual(trace, []string{"early", "late", "body"})

	// the child is sealed now; further parent declarations are ignored
	parent.Before(mark(&trace, "too-late"))

	trace = []string{}
	_, err = child.Call(httptest.NewRequest("GET", "/", nil))
	AssertNil(err)
	AssertEqual(trace, []string{"early", "late", "body"})
}
