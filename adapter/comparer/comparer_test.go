package comparer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/godm/domain"
)

type M = domain.Document

type A = domain.A

type ComparerTestSuite struct {
	suite.Suite
	c *Comparer
}

func (s *ComparerTestSuite) SetupTest() {
	s.c = NewComparer().(*Comparer)
}

func (s *ComparerTestSuite) greater(small any, bigger ...any) {
	for _, b := range bigger {
		comp, err := s.c.Compare(small, b)
		s.NoError(err)
		s.Equal(-1, comp, "%v < %v", small, b)
		comp, err = s.c.Compare(b, small)
		s.NoError(err)
		s.Equal(1, comp, "%v > %v", b, small)
	}
}

// nil should always be the smallest value.
func (s *ComparerTestSuite) TestNilIsSmallest() {
	s.greater(nil, "string", "", -1, 0, uint(12), false,
		time.UnixMilli(12345), M{}, M{"hello": "world"}, A{}, A{"quite", 5},
	)
	comp, err := s.c.Compare(nil, nil)
	s.NoError(err)
	s.Zero(comp)
}

func (s *ComparerTestSuite) TestNumbers() {
	testCases := []struct {
		arg1 any
		arg2 any
		res  int
	}{
		{arg1: int64(-12), arg2: int16(0), res: -1},
		{arg1: uint8(0), arg2: int8(-3), res: 1},
		{arg1: 5.7, arg2: uint32(2), res: 1},
		{arg1: 5.7, arg2: float32(12.3), res: -1},
		{arg1: uint64(0), arg2: uint16(0), res: 0},
		{arg1: -2.6, arg2: -2.6, res: 0},
		{arg1: int32(5), arg2: 5, res: 0},
		{arg1: int64(1<<62 + 1), arg2: float64(1 << 62), res: 1},
		{arg1: uint64(1<<63 + 1), arg2: float64(1 << 63), res: 1},
		{arg1: int64(1<<53 + 1), arg2: int64(1 << 53), res: 1},
	}

	for _, tc := range testCases {
		comp, err := s.c.Compare(tc.arg1, tc.arg2)
		s.NoError(err)
		s.Equal(tc.res, comp)
	}

	for _, n := range [...]any{-10, 0, 3.5, uint(12)} {
		s.greater(n, "", "string", true, time.UnixMilli(0), A{}, M{})
	}
}

func (s *ComparerTestSuite) TestStrings() {
	comp, err := s.c.Compare("hey", "hew")
	s.NoError(err)
	s.Equal(1, comp)

	comp, err = s.c.Compare("", "hey")
	s.NoError(err)
	s.Equal(-1, comp)

	s.greater("zzz", false, time.UnixMilli(12345), A{}, M{})
}

func (s *ComparerTestSuite) TestBooleans() {
	comp, err := s.c.Compare(true, false)
	s.NoError(err)
	s.Equal(1, comp)

	comp, err = s.c.Compare(true, true)
	s.NoError(err)
	s.Zero(comp)

	s.greater(true, time.UnixMilli(0), A{}, M{})
}

func (s *ComparerTestSuite) TestDates() {
	now := time.Now()
	comp, err := s.c.Compare(time.UnixMilli(54341), now)
	s.NoError(err)
	s.Equal(-1, comp)

	s.greater(now, A{}, A{"hello", 5}, M{})
}

func (s *ComparerTestSuite) TestArrays() {
	testCases := []struct {
		arg1 A
		arg2 A
		res  int
	}{
		{arg1: A{}, arg2: A{}, res: 0},
		{arg1: A{"hello"}, arg2: A{}, res: 1},
		{arg1: A{"hello"}, arg2: A{"hello", "world"}, res: -1},
		{arg1: A{"hello", "earth"}, arg2: A{"hello", "world"}, res: -1},
		{arg1: A{"hello", "zzz"}, arg2: A{"hello", "world"}, res: 1},
	}

	for _, tc := range testCases {
		comp, err := s.c.Compare(tc.arg1, tc.arg2)
		s.NoError(err)
		s.Equal(tc.res, comp)
	}

	s.greater(A{"yes"}, M{}, M{"hello": "world"})
}

func (s *ComparerTestSuite) TestDocuments() {
	testCases := []struct {
		arg1 any
		arg2 any
		res  int
	}{
		{arg1: M{"a": 42}, arg2: M{"a": 312}, res: -1},
		{arg1: M{"a": "42"}, arg2: M{"a": "312"}, res: 1},
		{arg1: M{"a": 42, "b": 312}, arg2: M{"b": 312, "a": 42}, res: 0},
		{arg1: M{"a": 42, "b": 312, "c": 54}, arg2: M{"b": 313, "a": 42}, res: -1},
		{arg1: M{"a": 1}, arg2: M{"a": 1, "b": 2}, res: -1},
		{arg1: M{"a": 1}, arg2: M{"b": 1}, res: -1},
	}

	for _, tc := range testCases {
		comp, err := s.c.Compare(tc.arg1, tc.arg2)
		s.NoError(err)
		s.Equal(tc.res, comp)
	}
}

func (s *ComparerTestSuite) TestReferencesCompareAsDocuments() {
	ref := domain.DBRef{Ref: "users", ID: 1}
	comp, err := s.c.Compare(ref, M{"$ref": "users", "$id": 1})
	s.NoError(err)
	s.Zero(comp)

	comp, err = s.c.Compare(ref, domain.DBRef{Ref: "users", ID: 2})
	s.NoError(err)
	s.Equal(-1, comp)
}

func (s *ComparerTestSuite) TestErrorOnUnknownPair() {
	testCases := []struct {
		arg1 any
		arg2 any
	}{
		{arg1: struct{}{}, arg2: []byte{}},
		{arg1: M{"nested": []string{"invalid"}}, arg2: M{"invalid": []int{}}},
		{arg1: A{[]string{"invalid"}}, arg2: A{[]string{"invalid too"}}},
	}

	for _, tc := range testCases {
		_, err := s.c.Compare(tc.arg1, tc.arg2)
		s.ErrorAs(err, &domain.ErrCannotCompare{})
	}
}

func (s *ComparerTestSuite) TestComparable() {
	s.True(s.c.Comparable(1, 2.5))
	s.True(s.c.Comparable("a", "b"))
	s.True(s.c.Comparable(time.Now(), time.Now()))
	s.False(s.c.Comparable(1, "1"))
	s.False(s.c.Comparable(true, true))
	s.False(s.c.Comparable(nil, nil))
	s.False(s.c.Comparable(A{}, A{}))
}

func TestComparerTestSuite(t *testing.T) {
	suite.Run(t, new(ComparerTestSuite))
}
