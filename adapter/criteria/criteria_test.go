package criteria

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/godm/domain"
)

type M = domain.Document
type A = domain.A

type CriteriaTestSuite struct {
	suite.Suite
	c *Criteria
}

func (s *CriteriaTestSuite) SetupTest() {
	s.c = New()
}

func (s *CriteriaTestSuite) TestAddCondition() {
	s.c.AddCondition("a", 1).AddCondition("b", 2, "$gt")
	s.Equal(M{"a": 1, "b": M{"$gt": 2}}, s.c.Condition())

	s.c.AddCondition("a", 3, "$ne")
	s.Equal(M{"a": M{"$ne": 3}, "b": M{"$gt": 2}}, s.c.Condition())
}

func (s *CriteriaTestSuite) TestAddBetweenAndOr() {
	s.c.AddBetween("age", 18, 30).AddOr(M{"a": 1}, M{"b": 2})
	s.Equal(M{
		"age": M{"$gte": 18, "$lte": 30},
		"$or": A{M{"a": 1}, M{"b": 2}},
	}, s.c.Condition())
}

func (s *CriteriaTestSuite) TestSetConditionKeepsExisting() {
	s.c.AddCondition("a", 1)
	s.c.SetCondition(M{"a": 2, "b": 3})
	s.Equal(M{"a": 1, "b": 3}, s.c.Condition())
}

func (s *CriteriaTestSuite) TestSkipLimitClamp() {
	s.c.SetSkip(-4).SetLimit(-1)
	s.Zero(s.c.Skip())
	s.Zero(s.c.Limit())
	s.False(s.c.IsEmpty())
}

func (s *CriteriaTestSuite) TestSortOverlay() {
	s.c.SetSort(domain.SortName{Key: "a", Order: 1}, domain.SortName{Key: "b", Order: -1})
	s.c.SetSort(domain.SortName{Key: "a", Order: -1}, domain.SortName{Key: "c", Order: 1})
	s.Equal(domain.Sort{{Key: "a", Order: -1}, {Key: "b", Order: -1}, {Key: "c", Order: 1}}, s.c.Sort())
}

func (s *CriteriaTestSuite) TestMergeWithOverlaysOther() {
	a := New().AddCondition("a", 1).AddCondition("shared", "a").SetLimit(5)
	b := New().AddCondition("b", 2).AddCondition("shared", "b").SetSkip(3)

	res := a.MergeWith(b)
	s.Equal(M{"a": 1, "b": 2, "shared": "b"}, res.Condition())
	s.EqualValues(5, res.Limit())
	s.EqualValues(3, res.Skip())

	// inputs are left untouched
	s.Equal(M{"a": 1, "shared": "a"}, a.Condition())
	s.Zero(a.Skip())
	s.Equal(M{"b": 2, "shared": "b"}, b.Condition())
}

func (s *CriteriaTestSuite) TestMergeWithNestedOperators() {
	a := New().AddCondition("n", 1, "$gt")
	b := New().AddCondition("n", 9, "$lt")
	s.Equal(M{"n": M{"$gt": 1, "$lt": 9}}, a.MergeWith(b).Condition())
}

func (s *CriteriaTestSuite) TestMergeWithUnsetSkipLimit() {
	a := New().SetSkip(2).SetLimit(4)
	res := a.MergeWith(New())
	s.EqualValues(2, res.Skip())
	s.EqualValues(4, res.Limit())

	res = a.MergeWith(New().SetLimit(0))
	s.Zero(res.Limit())
}

func (s *CriteriaTestSuite) TestCompareBlank() {
	s.c.AddCondition("x", 1)
	before := s.c.ToMap(false)

	s.c.Compare("name", "", true)
	s.c.Compare("name", nil, true)
	s.c.Compare("name", "", false)
	s.c.Compare("name", nil, false)

	s.Equal(before, s.c.ToMap(false))
}

func (s *CriteriaTestSuite) TestCompareOperators() {
	s.c.Compare("a", ">=5", true)
	s.Equal(M{"a": M{"$gte": 5}}, s.c.Condition())

	s.c = New().Compare("a", "<2.5", true)
	s.Equal(M{"a": M{"$lt": 2.5}}, s.c.Condition())

	s.c = New().Compare("a", "<>x", true)
	s.Equal(M{"a": M{"$ne": "x"}}, s.c.Condition())

	s.c = New().Compare("a", "!=3", true)
	s.Equal(M{"a": M{"$ne": 3}}, s.c.Condition())

	s.c = New().Compare("a", "=7", true)
	s.Equal(M{"a": 7}, s.c.Condition())

	s.c = New().Compare("a", 12, true)
	s.Equal(M{"a": 12}, s.c.Condition())
}

func (s *CriteriaTestSuite) TestCompareWeak() {
	s.c.Compare("name", "jo.hn", false)
	s.Equal(M{"name": domain.Regex{Pattern: `jo\.hn`, Options: "i"}}, s.c.Condition())

	// numbers are never turned into a pattern
	s.c = New().Compare("age", "42", false)
	s.Equal(M{"age": 42}, s.c.Condition())
}

func (s *CriteriaTestSuite) TestCompareMergesUnder() {
	s.c.Compare("a", ">1", true).Compare("a", "<9", true)
	s.Equal(M{"a": M{"$gt": 1, "$lt": 9}}, s.c.Condition())

	// plain value already set wins
	s.c = New().AddCondition("a", "fixed").Compare("a", "other", true)
	s.Equal(M{"a": "fixed"}, s.c.Condition())
}

func (s *CriteriaTestSuite) TestFromMapAndToMap() {
	c := FromMap(map[string]any{
		"condition": M{"a": 1},
		"sort":      M{"b": "desc", "a": 1},
		"skip":      2,
		"limit":     "10",
	})
	s.Equal(map[string]any{
		"condition": M{"a": 1},
		"sort":      domain.Sort{{Key: "a", Order: 1}, {Key: "b", Order: -1}},
		"skip":      int64(2),
		"limit":     int64(10),
	}, c.ToMap(false))
	s.Equal(M{"a": 1}, c.ToMap(true))
}

func (s *CriteriaTestSuite) TestDirection() {
	s.EqualValues(-1, Direction(false))
	s.EqualValues(-1, Direction("DESC"))
	s.EqualValues(-1, Direction(-1))
	s.EqualValues(1, Direction(true))
	s.EqualValues(1, Direction("asc"))
	s.EqualValues(1, Direction(nil))
}

func (s *CriteriaTestSuite) TestOptions() {
	c := New(
		WithCondition(M{"a": 1}),
		WithSort(domain.SortName{Key: "a", Order: 1}),
		WithSkip(1),
		WithLimit(2),
	)
	s.Equal(domain.FindOptions{Sort: domain.Sort{{Key: "a", Order: 1}}, Skip: 1, Limit: 2}, c.FindOptions())
	s.Equal(M{"a": 1}, c.Condition())
}

func TestCriteriaTestSuite(t *testing.T) {
	suite.Run(t, new(CriteriaTestSuite))
}
