package modifier

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/godm/domain"
)

type M = domain.Document

type A = domain.A

type ModifierTestSuite struct {
	suite.Suite
	m *Modifier
}

func (s *ModifierTestSuite) SetupTest() {
	s.m = NewModifier().(*Modifier)
}

func (s *ModifierTestSuite) modify(d, update M) M {
	res, err := s.m.Modify(d, update)
	s.Require().NoError(err)
	return res
}

func (s *ModifierTestSuite) TestReplace() {
	d := M{"_id": "1", "a": 1, "b": 2}

	res := s.modify(d, M{"c": []string{"x"}})
	s.Equal(M{"_id": "1", "c": A{"x"}}, res)
	s.Equal(M{"_id": "1", "a": 1, "b": 2}, d)

	_, err := s.m.Modify(d, M{"_id": "2"})
	s.ErrorIs(err, domain.ErrCannotModifyID)
}

func (s *ModifierTestSuite) TestMixed() {
	_, err := s.m.Modify(M{}, M{"$set": M{"a": 1}, "b": 2})
	s.ErrorIs(err, ErrMixedOperators)

	_, err = s.m.Modify(M{}, M{"$fly": M{"a": 1}})
	s.ErrorAs(err, &domain.ErrUnknownOperator{})

	_, err = s.m.Modify(M{}, M{"$set": 1})
	s.ErrorAs(err, &ErrModArgType{})
}

func (s *ModifierTestSuite) TestSetUnset() {
	d := M{"_id": 1, "a": 1, "nested": M{"x": 1}}

	res := s.modify(d, M{"$set": M{"a": 2, "nested.y": 3, "deep.er": true}})
	s.Equal(M{"_id": 1, "a": 2, "nested": M{"x": 1, "y": 3}, "deep": M{"er": true}}, res)
	s.Equal(M{"x": 1}, d["nested"])

	res = s.modify(res, M{"$unset": M{"a": "", "nested.x": 1, "missing": 1}})
	s.Equal(M{"_id": 1, "nested": M{"y": 3}, "deep": M{"er": true}}, res)

	_, err := s.m.Modify(d, M{"$set": M{"_id": 2}})
	s.ErrorIs(err, domain.ErrCannotModifyID)
}

func (s *ModifierTestSuite) TestInc() {
	res := s.modify(M{"n": 1, "f": 1.5}, M{"$inc": M{"n": 2, "f": 1, "new": 3}})
	s.Equal(M{"n": 3, "f": 2.5, "new": 3}, res)

	res = s.modify(M{"n": int64(1)}, M{"$inc": M{"n": 2}})
	s.Equal(int64(3), res["n"])

	_, err := s.m.Modify(M{"n": "x"}, M{"$inc": M{"n": 1}})
	s.ErrorAs(err, &domain.ErrFieldType{})

	_, err = s.m.Modify(M{"n": 1}, M{"$inc": M{"n": "1"}})
	s.ErrorAs(err, &ErrModArgType{})
}

func (s *ModifierTestSuite) TestMaxMin() {
	res := s.modify(M{"a": 5, "b": 5}, M{"$max": M{"a": 7, "c": 1}, "$min": M{"b": 7}})
	s.Equal(M{"a": 7, "b": 5, "c": 1}, res)

	res = s.modify(M{"a": 5}, M{"$min": M{"a": 2}})
	s.Equal(M{"a": 2}, res)
}

func (s *ModifierTestSuite) TestPush() {
	res := s.modify(M{"l": A{1}}, M{"$push": M{"l": 2, "new": "x"}})
	s.Equal(M{"l": A{1, 2}, "new": A{"x"}}, res)

	res = s.modify(M{"l": A{1}}, M{"$push": M{"l": M{"$each": A{2, 3, 4}, "$slice": -2}}})
	s.Equal(A{3, 4}, res["l"])

	res = s.modify(M{"l": A{1}}, M{"$push": M{"l": M{"$each": []int{2, 3}, "$slice": 2}}})
	s.Equal(A{1, 2}, res["l"])

	res = s.modify(M{"l": A{}}, M{"$push": M{"l": M{"a": 1}}})
	s.Equal(A{M{"a": 1}}, res["l"])

	_, err := s.m.Modify(M{"l": A{}}, M{"$push": M{"l": M{"$each": A{1}, "$sort": 1}}})
	s.ErrorIs(err, ErrInvalidPushField)

	_, err = s.m.Modify(M{"l": 1}, M{"$push": M{"l": 2}})
	s.ErrorAs(err, &domain.ErrFieldType{})
}

func (s *ModifierTestSuite) TestAddToSet() {
	res := s.modify(M{"l": A{1, "a"}}, M{"$addToSet": M{"l": "a"}})
	s.Equal(A{1, "a"}, res["l"])

	res = s.modify(M{"l": A{1}}, M{"$addToSet": M{"l": M{"$each": A{1.0, 2, 2}}}})
	s.Equal(A{1, 2}, res["l"])
}

func (s *ModifierTestSuite) TestPop() {
	res := s.modify(M{"l": A{1, 2, 3}}, M{"$pop": M{"l": 1}})
	s.Equal(A{1, 2}, res["l"])

	res = s.modify(M{"l": A{1, 2, 3}}, M{"$pop": M{"l": -1}})
	s.Equal(A{2, 3}, res["l"])

	res = s.modify(M{"l": A{}}, M{"$pop": M{"l": 1}})
	s.Equal(A{}, res["l"])
}

func (s *ModifierTestSuite) TestPull() {
	res := s.modify(M{"l": A{1, 2, 1, 3}}, M{"$pull": M{"l": 1}})
	s.Equal(A{2, 3}, res["l"])

	res = s.modify(M{"l": A{1, 5, 9}}, M{"$pull": M{"l": M{"$gte": 5}}})
	s.Equal(A{1}, res["l"])

	res = s.modify(M{"l": A{M{"a": 1, "b": 1}, M{"a": 2}}}, M{"$pull": M{"l": M{"a": 1}}})
	s.Equal(A{M{"a": 2}}, res["l"])
}

func (s *ModifierTestSuite) TestRename() {
	res := s.modify(M{"a": 1, "n": M{"b": 2}}, M{"$rename": M{"a": "z", "n.b": "n.c"}})
	s.Equal(M{"z": 1, "n": M{"c": 2}}, res)

	res = s.modify(M{"a": 1}, M{"$rename": M{"missing": "x"}})
	s.Equal(M{"a": 1}, res)

	_, err := s.m.Modify(M{"a": 1}, M{"$rename": M{"a": 1}})
	s.ErrorAs(err, &ErrModArgType{})
}

func TestModifierTestSuite(t *testing.T) {
	suite.Run(t, new(ModifierTestSuite))
}
