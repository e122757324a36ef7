package matcher

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/godm/domain"
)

type M = domain.Document

type A = domain.A

type MatcherTestSuite struct {
	suite.Suite
	m *Matcher
}

func (s *MatcherTestSuite) SetupTest() {
	s.m = NewMatcher().(*Matcher)
}

func (s *MatcherTestSuite) match(d, query M) bool {
	matches, err := s.m.Match(d, query)
	s.Require().NoError(err)
	return matches
}

func (s *MatcherTestSuite) TestEquality() {
	d := M{"name": "ana", "age": 30, "tags": A{"a", "b"}, "addr": M{"city": "rio"}}

	s.True(s.match(d, M{}))
	s.True(s.match(d, M{"name": "ana"}))
	s.True(s.match(d, M{"age": 30.0}))
	s.False(s.match(d, M{"name": "bia"}))
	s.True(s.match(d, M{"addr.city": "rio"}))
	s.True(s.match(d, M{"addr": M{"city": "rio"}}))
	s.True(s.match(d, M{"tags": "b"}))
	s.True(s.match(d, M{"tags": []string{"a", "b"}}))
	s.True(s.match(d, M{"missing": nil}))
	s.False(s.match(d, M{"name": nil}))
}

func (s *MatcherTestSuite) TestComparisons() {
	d := M{"age": 30, "scores": A{1, 8}, "at": time.UnixMilli(1000)}

	s.True(s.match(d, M{"age": M{"$gt": 18}}))
	s.True(s.match(d, M{"age": M{"$gte": 30, "$lte": 30}}))
	s.False(s.match(d, M{"age": M{"$lt": 30}}))
	s.False(s.match(d, M{"age": M{"$gt": "10"}}))
	s.True(s.match(d, M{"scores": M{"$gt": 5}}))
	s.True(s.match(d, M{"at": M{"$lt": time.UnixMilli(2000)}}))
	s.True(s.match(d, M{"age": M{"$ne": 31}}))
	s.True(s.match(d, M{"missing": M{"$ne": 1}}))
	s.False(s.match(d, M{"scores": M{"$ne": 8}}))
	s.True(s.match(d, M{"age": M{"$eq": 30}}))
}

func (s *MatcherTestSuite) TestLists() {
	d := M{"tags": A{"a", "b"}, "n": 2, "deleted": nil}

	s.True(s.match(d, M{"n": M{"$in": A{1, 2}}}))
	s.True(s.match(d, M{"n": M{"$in": []int{1, 2}}}))
	s.False(s.match(d, M{"n": M{"$nin": A{1, 2}}}))
	s.True(s.match(d, M{"tags": M{"$in": A{"b", "z"}}}))
	s.True(s.match(d, M{"tags": M{"$all": A{"a", "b"}}}))
	s.False(s.match(d, M{"tags": M{"$all": A{"a", "c"}}}))
	s.True(s.match(d, M{"tags": M{"$size": 2}}))
	s.False(s.match(d, M{"n": M{"$size": 1}}))
	s.True(s.match(d, M{"deleted": M{"$in": A{false, nil}}}))
	s.True(s.match(d, M{"removed": M{"$in": A{false, nil}}}))
	s.True(s.match(d, M{"tags": M{"$in": A{domain.Regex{Pattern: "^B", Options: "i"}}}}))

	_, err := s.m.Match(d, M{"n": M{"$in": 1}})
	s.ErrorAs(err, &ErrCompArgType{})
}

func (s *MatcherTestSuite) TestExists() {
	d := M{"a": nil}
	s.True(s.match(d, M{"a": M{"$exists": true}}))
	s.True(s.match(d, M{"b": M{"$exists": false}}))
	s.True(s.match(d, M{"b": M{"$exists": 0}}))
	s.False(s.match(d, M{"b": M{"$exists": 1}}))
}

func (s *MatcherTestSuite) TestRegex() {
	d := M{"name": "Alice", "nick": A{"al", "lili"}}

	s.True(s.match(d, M{"name": regexp.MustCompile("^Al")}))
	s.True(s.match(d, M{"name": domain.Regex{Pattern: "alice", Options: "i"}}))
	s.False(s.match(d, M{"name": domain.Regex{Pattern: "alice"}}))
	s.True(s.match(d, M{"name": M{"$regex": "ICE$", "$options": "i"}}))
	s.True(s.match(d, M{"nick": M{"$regex": "^li"}}))
	s.False(s.match(d, M{"age": M{"$regex": "."}}))
	s.True(s.match(d, M{"name": M{"$not": regexp.MustCompile("^B")}}))

	_, err := s.m.Match(d, M{"name": domain.Regex{Pattern: "a", Options: "q"}})
	s.Error(err)
}

func (s *MatcherTestSuite) TestLogicOperators() {
	d := M{"a": 1, "b": 2}

	s.True(s.match(d, M{"$or": A{M{"a": 5}, M{"b": 2}}}))
	s.False(s.match(d, M{"$or": A{M{"a": 5}, M{"b": 5}}}))
	s.True(s.match(d, M{"$and": []M{{"a": 1}, {"b": 2}}}))
	s.False(s.match(d, M{"$nor": A{M{"a": 1}}}))
	s.True(s.match(d, M{"$not": M{"a": 2}}))
	s.True(s.match(d, M{"a": 1, "$or": A{M{"b": 2}}}))
	s.True(s.match(d, M{"a": M{"$not": M{"$gt": 3}}}))
	s.True(s.match(d, M{"$where": func(d M) (bool, error) { return d["a"] == 1, nil }}))

	_, err := s.m.Match(d, M{"$or": A{}})
	s.ErrorAs(err, &ErrCompArgType{})
	_, err = s.m.Match(d, M{"$xor": A{M{"a": 1}}})
	s.ErrorAs(err, &domain.ErrUnknownOperator{})
}

func (s *MatcherTestSuite) TestElemMatch() {
	d := M{
		"items": A{M{"sku": "x", "qty": 1}, M{"sku": "y", "qty": 10}},
		"nums":  A{1, 5, 9},
	}

	s.True(s.match(d, M{"items": M{"$elemMatch": M{"sku": "y", "qty": M{"$gt": 5}}}}))
	s.False(s.match(d, M{"items": M{"$elemMatch": M{"sku": "x", "qty": M{"$gt": 5}}}}))
	s.True(s.match(d, M{"nums": M{"$elemMatch": M{"$gt": 4, "$lt": 6}}}))
	s.False(s.match(d, M{"nums": M{"$elemMatch": M{"$gt": 9}}}))
	s.True(s.match(d, M{"items.sku": "y"}))
}

func (s *MatcherTestSuite) TestReferences() {
	ref := domain.DBRef{Ref: "users", ID: 1}
	d := M{"owner": ref.Document()}

	s.True(s.match(d, M{"owner": M{"$ref": "users", "$id": 1}}))
	s.True(s.match(d, M{"owner": ref}))
}

func (s *MatcherTestSuite) TestErrors() {
	d := M{"a": 1}

	_, err := s.m.Match(d, M{"a": M{"$gt": 1, "b": 2}})
	s.ErrorIs(err, ErrMixedOperators)

	_, err = s.m.Match(d, M{"a": M{"$foo": 1}})
	s.ErrorAs(err, &domain.ErrUnknownOperator{})

	_, err = s.m.Match(d, M{"a": M{"$size": "x"}})
	s.ErrorAs(err, &ErrCompArgType{})
}

func (s *MatcherTestSuite) TestCompileOnce() {
	lo, err := s.m.Compile(M{"n": M{"$gte": 2}})
	s.NoError(err)

	for n, want := range []bool{false, false, true, true} {
		matches, err := s.m.MatchCompiled(M{"n": n}, lo)
		s.NoError(err)
		s.Equal(want, matches)
	}
}

func TestMatcherTestSuite(t *testing.T) {
	suite.Run(t, new(MatcherTestSuite))
}
