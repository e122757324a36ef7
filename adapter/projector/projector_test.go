package projector

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/godm/domain"
)

type M = domain.Document

type A = domain.A

type ProjectorTestSuite struct {
	suite.Suite
	p *Projector
}

func (s *ProjectorTestSuite) SetupTest() {
	s.p = NewProjector().(*Projector)
}

func (s *ProjectorTestSuite) project(d M, proj M) M {
	res, err := s.p.Project([]M{d}, proj)
	s.Require().NoError(err)
	s.Require().Len(res, 1)
	return res[0]
}

func (s *ProjectorTestSuite) TestEmptyProjection() {
	docs := []M{{"_id": 1, "a": 1}}
	res, err := s.p.Project(docs, nil)
	s.NoError(err)
	s.Equal(docs, res)
}

func (s *ProjectorTestSuite) TestKeep() {
	d := M{"_id": 1, "a": 1, "b": 2, "n": M{"x": 1, "y": 2}}

	s.Equal(M{"_id": 1, "a": 1}, s.project(d, M{"a": 1}))
	s.Equal(M{"a": 1}, s.project(d, M{"a": true, "_id": 0}))
	s.Equal(M{"_id": 1, "n": M{"y": 2}}, s.project(d, M{"n.y": 1}))
	s.Equal(M{"_id": 1}, s.project(d, M{"missing": 1}))
}

func (s *ProjectorTestSuite) TestOmit() {
	d := M{"_id": 1, "a": 1, "b": 2, "n": M{"x": 1, "y": 2}}

	s.Equal(M{"_id": 1, "b": 2, "n": M{"y": 2}}, s.project(d, M{"a": 0, "n.x": false}))
	s.Equal(M{"a": 1, "b": 2, "n": M{"x": 1, "y": 2}}, s.project(d, M{"_id": 0}))
	s.Equal(M{"x": 1, "y": 2}, d["n"])
}

func (s *ProjectorTestSuite) TestExpanded() {
	d := M{"_id": 1, "l": A{M{"a": 1, "b": 1}, M{"a": 2}}}
	s.Equal(M{"_id": 1, "l": M{"a": A{1, 2}}}, s.project(d, M{"l.a": 1}))
}

func (s *ProjectorTestSuite) TestMixed() {
	_, err := s.p.Project([]M{{"a": 1}}, M{"a": 1, "b": 0})
	s.ErrorIs(err, ErrMixOmitType)
}

func TestProjectorTestSuite(t *testing.T) {
	suite.Run(t, new(ProjectorTestSuite))
}
