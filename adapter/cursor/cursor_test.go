package cursor

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/godm/domain"
)

type M = domain.Document

type A = domain.A

type collectionMock struct {
	domain.Collection
	mock.Mock
}

func (c *collectionMock) Find(ctx context.Context, filter domain.Document, opts domain.FindOptions) (domain.DriverCursor, error) {
	call := c.Called(ctx, filter, opts)
	cur, _ := call.Get(0).(domain.DriverCursor)
	return cur, call.Error(1)
}

func (c *collectionMock) Count(ctx context.Context, filter domain.Document, opts domain.CountOptions) (int64, error) {
	call := c.Called(ctx, filter, opts)
	return call.Get(0).(int64), call.Error(1)
}

func name(_ context.Context, d domain.Document) (string, error) {
	return fmt.Sprint(d["name"]), nil
}

type CursorTestSuite struct {
	suite.Suite
	ctx  context.Context
	coll *collectionMock
}

func (s *CursorTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.coll = &collectionMock{}
}

func (s *CursorTestSuite) slice(docs ...domain.Document) *Slice {
	cur, err := NewSlice(s.ctx, docs)
	s.Require().NoError(err)
	return cur
}

func (s *CursorTestSuite) TestLazy() {
	c := New(s.coll, M{"a": 1}, domain.FindOptions{}, name)

	// nothing runs before Next
	s.coll.AssertNotCalled(s.T(), "Find", mock.Anything, mock.Anything, mock.Anything)
	s.Nil(c.Raw())

	s.NoError(c.Sort(domain.Sort{{Key: "name", Order: -1}}))
	s.NoError(c.Skip(1))
	s.NoError(c.Limit(-2))
	s.NoError(c.Select(M{"name": 1}))

	expected := domain.FindOptions{
		Sort:       domain.Sort{{Key: "name", Order: -1}},
		Skip:       1,
		Projection: M{"name": 1},
	}
	s.coll.On("Find", s.ctx, M{"a": 1}, expected).Return(s.slice(M{"name": "x"}, M{"name": "y"}), nil).Once()

	s.True(c.Next(s.ctx))
	v, err := c.Current(s.ctx)
	s.NoError(err)
	s.Equal("x", v)
	s.Equal(M{"name": "x"}, c.Document())
	s.NotNil(c.Raw())

	var ise *domain.IllegalStateError
	s.ErrorAs(c.Sort(nil), &ise)
	s.Equal("sort", ise.Op)
	s.ErrorAs(c.Skip(1), &ise)
	s.ErrorAs(c.Limit(1), &ise)
	s.ErrorAs(c.Select(nil), &ise)

	s.True(c.Next(s.ctx))
	s.False(c.Next(s.ctx))
	s.NoError(c.Err())
	s.coll.AssertExpectations(s.T())
}

func (s *CursorTestSuite) TestCurrentBeforeNext() {
	c := New(s.coll, M{}, domain.FindOptions{}, name)
	_, err := c.Current(s.ctx)
	s.ErrorIs(err, domain.ErrCurrentBeforeNext)

	s.NoError(c.Close(s.ctx))
	s.NoError(c.Close(s.ctx))
	_, err = c.Current(s.ctx)
	s.ErrorIs(err, domain.ErrCursorClosed)
	s.False(c.Next(s.ctx))
}

func (s *CursorTestSuite) TestAll() {
	s.coll.On("Find", s.ctx, M{}, domain.FindOptions{}).
		Return(s.slice(M{"name": "a"}, M{"name": "b"}), nil).Once()

	c := New(s.coll, M{}, domain.FindOptions{}, name)
	res, err := c.All(s.ctx)
	s.NoError(err)
	s.Equal([]string{"a", "b"}, res)
	s.False(c.Next(s.ctx))
}

func (s *CursorTestSuite) TestFindError() {
	s.coll.On("Find", s.ctx, M{}, domain.FindOptions{}).Return(nil, errors.New("boom")).Once()

	c := New(s.coll, M{}, domain.FindOptions{}, name)
	_, err := c.All(s.ctx)
	s.EqualError(err, "boom")
}

func (s *CursorTestSuite) TestPopulateError() {
	s.coll.On("Find", s.ctx, M{}, domain.FindOptions{}).Return(s.slice(M{}), nil).Once()
	fail := func(context.Context, domain.Document) (int, error) { return 0, errors.New("bad") }

	_, err := New(s.coll, M{}, domain.FindOptions{}, fail).All(s.ctx)
	s.EqualError(err, "bad")
}

func (s *CursorTestSuite) TestCount() {
	opts := domain.FindOptions{Skip: 2, Limit: 3}
	s.coll.On("Count", s.ctx, M{"a": 1}, domain.CountOptions{}).Return(int64(10), nil).Once()
	s.coll.On("Count", s.ctx, M{"a": 1}, domain.CountOptions{Skip: 2, Limit: 3}).Return(int64(3), nil).Once()

	c := New(s.coll, M{"a": 1}, opts, name)
	n, err := c.Count(s.ctx, false)
	s.NoError(err)
	s.Equal(int64(10), n)
	n, err = c.Count(s.ctx, true)
	s.NoError(err)
	s.Equal(int64(3), n)
	s.Equal(M{"a": 1}, c.Filter())
	s.Equal(opts, c.Options())
}

func (s *CursorTestSuite) TestEmpty() {
	c := Empty(name)
	n, err := c.Count(s.ctx, true)
	s.NoError(err)
	s.Zero(n)

	res, err := c.All(s.ctx)
	s.NoError(err)
	s.Empty(res)
	s.Nil(c.Raw())
	s.coll.AssertNotCalled(s.T(), "Find", mock.Anything, mock.Anything, mock.Anything)
}

func (s *CursorTestSuite) TestSlice() {
	data := []domain.Document{{"a": M{"b": 1}}}
	cur := s.slice(data...)

	_, err := cur.Current()
	s.ErrorIs(err, domain.ErrCurrentBeforeNext)

	s.True(cur.Next(s.ctx))
	d, err := cur.Current()
	s.NoError(err)
	d["a"].(M)["b"] = 2
	s.Equal(M{"a": M{"b": 1}}, data[0])

	s.False(cur.Next(s.ctx))
	s.NoError(cur.Close(s.ctx))
	s.NoError(cur.Err())
	s.NoError(cur.Close(s.ctx))
	_, err = cur.Current()
	s.ErrorIs(err, domain.ErrCursorClosed)
}

func (s *CursorTestSuite) TestSliceCanceled() {
	ctx, cancel := context.WithCancel(s.ctx)
	cur, err := NewSlice(ctx, []domain.Document{{}, {}})
	s.NoError(err)
	cancel()
	s.False(cur.Next(s.ctx))
	s.ErrorIs(cur.Err(), context.Canceled)

	_, err = NewSlice(ctx, nil)
	s.ErrorIs(err, context.Canceled)
}

func TestCursorTestSuite(t *testing.T) {
	suite.Run(t, new(CursorTestSuite))
}
