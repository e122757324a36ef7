package fieldnavigator

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/godm/domain"
)

type M = domain.Document

type A = domain.A

type FieldNavigatorTestSuite struct {
	suite.Suite
	fn *FieldNavigator
}

func (s *FieldNavigatorTestSuite) SetupTest() {
	s.fn = NewFieldNavigator().(*FieldNavigator)
}

func (s *FieldNavigatorTestSuite) values(gs []domain.GetSetter) A {
	res := A{}
	for _, g := range gs {
		if v, ok := g.Get(); ok {
			res = append(res, v)
		}
	}
	return res
}

func (s *FieldNavigatorTestSuite) TestGetAddress() {
	addr, err := s.fn.GetAddress("a.b.0")
	s.NoError(err)
	s.Equal([]string{"a", "b", "0"}, addr)

	_, err = s.fn.GetAddress("")
	s.ErrorIs(err, ErrEmptyPath)
}

func (s *FieldNavigatorTestSuite) TestFirstLevel() {
	doc := M{"hello": "world", "type": M{"planet": true}}

	dv, expanded, err := s.fn.GetField(doc, "hello")
	s.NoError(err)
	s.False(expanded)
	s.Equal(A{"world"}, s.values(dv))

	dv, expanded, err = s.fn.GetField(doc, "type", "planet")
	s.NoError(err)
	s.False(expanded)
	s.Equal(A{true}, s.values(dv))
}

func (s *FieldNavigatorTestSuite) TestNotDefined() {
	doc := M{"hello": "world", "nil": nil}

	dv, _, err := s.fn.GetField(doc, "helloo")
	s.NoError(err)
	s.Len(dv, 1)
	_, isSet := dv[0].Get()
	s.False(isSet)

	dv, _, err = s.fn.GetField(doc, "hello", "world")
	s.NoError(err)
	_, isSet = dv[0].Get()
	s.False(isSet)

	dv, _, err = s.fn.GetField(doc, "nil")
	s.NoError(err)
	v, isSet := dv[0].Get()
	s.True(isSet)
	s.Nil(v)
}

func (s *FieldNavigatorTestSuite) TestArrays() {
	doc := M{
		"planets": A{
			M{"name": "earth", "moons": A{M{"name": "moon"}}},
			M{"name": "mars", "moons": A{M{"name": "phobos"}, M{"name": "deimos"}}},
			"pluto",
		},
	}

	dv, expanded, err := s.fn.GetField(doc, "planets", "1", "name")
	s.NoError(err)
	s.False(expanded)
	s.Equal(A{"mars"}, s.values(dv))

	dv, expanded, err = s.fn.GetField(doc, "planets", "name")
	s.NoError(err)
	s.True(expanded)
	s.Equal(A{"earth", "mars"}, s.values(dv))

	dv, expanded, err = s.fn.GetField(doc, "planets", "moons", "name")
	s.NoError(err)
	s.True(expanded)
	s.Equal(A{"moon", "phobos", "deimos"}, s.values(dv))

	dv, _, err = s.fn.GetField(doc, "planets", "7")
	s.NoError(err)
	s.Empty(s.values(dv))
}

func (s *FieldNavigatorTestSuite) TestEnsure() {
	doc := M{"a": 1}

	gs, err := s.fn.EnsureField(doc, "b", "c")
	s.NoError(err)
	gs.Set(2)
	s.Equal(M{"a": 1, "b": M{"c": 2}}, doc)

	gs, err = s.fn.EnsureField(doc, "a")
	s.NoError(err)
	gs.Unset()
	s.Equal(M{"b": M{"c": 2}}, doc)
}

func (s *FieldNavigatorTestSuite) TestEnsureList() {
	doc := M{"list": A{1, 2}}

	gs, err := s.fn.EnsureField(doc, "list", "0")
	s.NoError(err)
	gs.Set(10)
	s.Equal(A{10, 2}, doc["list"])

	gs, err = s.fn.EnsureField(doc, "list", "3", "x")
	s.NoError(err)
	gs.Set(true)
	s.Equal(A{10, 2, nil, M{"x": true}}, doc["list"])

	_, err = s.fn.EnsureField(doc, "list", "x")
	s.ErrorAs(err, &ErrCannotTraverse{})
}

func (s *FieldNavigatorTestSuite) TestEnsureThroughScalar() {
	doc := M{"a": "text"}
	_, err := s.fn.EnsureField(doc, "a", "b")
	var e ErrCannotTraverse
	s.ErrorAs(err, &e)
	s.Equal("a.b", e.Field)

	_, err = s.fn.EnsureField(doc)
	s.ErrorIs(err, ErrEmptyPath)
}

func TestFieldNavigatorTestSuite(t *testing.T) {
	suite.Run(t, new(FieldNavigatorTestSuite))
}
