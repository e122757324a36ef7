package validator

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/godm/adapter/criteria"
	"github.com/vinicius-lino-figueiredo/godm/adapter/model"
	"github.com/vinicius-lino-figueiredo/godm/domain"
)

type M = domain.Document

type A = domain.A

type connMock struct {
	domain.Connection
	coll *collectionMock
	name string
}

func (c *connMock) Collection(name string) domain.Collection {
	c.name = name
	return c.coll
}

type collectionMock struct {
	domain.Collection
	mock.Mock
}

func (c *collectionMock) FindOne(ctx context.Context, filter domain.Document, opts domain.FindOptions) (domain.Document, error) {
	call := c.Called(ctx, filter, opts)
	d, _ := call.Get(0).(domain.Document)
	return d, call.Error(1)
}

type item struct {
	model.Model
	Title string `odm:"title"`
}

func (i *item) Rules() []model.Rule {
	return []model.Rule{{Fields: []string{"title"}, Validator: Required{}}}
}

type user struct {
	model.Model
	ID    any    `odm:"_id"`
	Name  string `odm:"name"`
	Email string `odm:"email"`
	Code  any    `odm:"code"`
	conn  *connMock
}

func (u *user) Connection() domain.Connection { return u.conn }

func (u *user) CollectionName() string { return "users" }

func (u *user) PrimaryKey() string { return "_id" }

func (u *user) PrimaryKeyValue() any { return u.ID }

func (u *user) SubDocuments() map[string]model.SubDocument {
	return map[string]model.SubDocument{
		"main":  {Kind: model.Single, New: model.Constructor[*item]()},
		"items": {Kind: model.Multi, New: model.Constructor[*item]()},
	}
}

type ValidatorTestSuite struct {
	suite.Suite
	ctx  context.Context
	u    *user
	coll *collectionMock
}

func (s *ValidatorTestSuite) SetupTest() {
	s.ctx = context.Background()
	u, err := model.New[*user]()
	s.Require().NoError(err)
	s.coll = &collectionMock{}
	u.conn = &connMock{coll: s.coll}
	s.u = u
}

func (s *ValidatorTestSuite) TestIsEmpty() {
	s.True(IsEmpty(nil))
	s.True(IsEmpty("  "))
	s.True(IsEmpty(A{}))
	s.True(IsEmpty(M{}))
	s.True(IsEmpty(0))
	s.True(IsEmpty((*user)(nil)))
	s.False(IsEmpty("a"))
	s.False(IsEmpty(A{nil}))
	s.False(IsEmpty(1))
}

func (s *ValidatorTestSuite) TestRequired() {
	Required{}.ValidateAttribute(s.ctx, s.u, "name")
	s.Equal([]string{"Name cannot be blank."}, s.u.Errors()["name"])

	s.u.ClearErrors()
	s.u.Name = "x"
	Required{}.ValidateAttribute(s.ctx, s.u, "name")
	s.False(s.u.HasErrors())

	Required{RequiredValue: "y", Message: "{attribute} must say {value}"}.ValidateAttribute(s.ctx, s.u, "name")
	s.Equal([]string{"Name must say y"}, s.u.Errors()["name"])
}

func (s *ValidatorTestSuite) TestMatch() {
	v := Match{Pattern: regexp.MustCompile(`^[a-z]+$`)}

	v.ValidateAttribute(s.ctx, s.u, "name")
	s.False(s.u.HasErrors())

	s.u.Name = "Abc"
	v.ValidateAttribute(s.ctx, s.u, "name")
	s.Equal([]string{"Name is invalid."}, s.u.Errors()["name"])

	s.u.ClearErrors()
	Match{Pattern: regexp.MustCompile(`^[a-z]+$`), Not: true}.ValidateAttribute(s.ctx, s.u, "name")
	s.False(s.u.HasErrors())
}

func (s *ValidatorTestSuite) TestLength() {
	s.u.Name = "ab"
	Length{Min: 3}.ValidateAttribute(s.ctx, s.u, "name")
	s.Equal([]string{"Name is too short (minimum is 3 characters)."}, s.u.Errors()["name"])

	s.u.ClearErrors()
	s.u.Name = "ção"
	Length{Max: 3}.ValidateAttribute(s.ctx, s.u, "name")
	s.False(s.u.HasErrors())
	Length{Max: 2}.ValidateAttribute(s.ctx, s.u, "name")
	s.Equal([]string{"Name is too long (maximum is 2 characters)."}, s.u.Errors()["name"])

	s.u.ClearErrors()
	Length{Is: 4}.ValidateAttribute(s.ctx, s.u, "name")
	s.Equal([]string{"Name is of the wrong length (should be 4 characters)."}, s.u.Errors()["name"])
}

func (s *ValidatorTestSuite) TestSafeUnsafe() {
	s.u.SetScenario(model.ScenarioInsert)
	_, isUnsafe := any(Unsafe{}).(interface{ Unsafe() bool })
	s.True(isUnsafe)
	_, isUnsafe = any(Safe{}).(interface{ Unsafe() bool })
	s.False(isUnsafe)
}

func (s *ValidatorTestSuite) TestUniqueTaken() {
	s.u.Email = " a@b.c "
	s.coll.On("FindOne", s.ctx, M{"email": "a@b.c", "active": true}, domain.FindOptions{Projection: M{"_id": 1}}).
		Return(M{"_id": 5}, nil).Once()

	crit := criteria.New().AddCondition("active", true)
	Unique{Criteria: crit}.ValidateAttribute(s.ctx, s.u, "email")

	s.Equal([]string{`Email "a@b.c" has already been taken.`}, s.u.Errors()["email"])
	s.Equal("users", s.u.conn.name)
	s.coll.AssertExpectations(s.T())
}

func (s *ValidatorTestSuite) TestUniqueSelf() {
	s.u.ID = 5
	s.u.Email = "a@b.c"
	s.coll.On("FindOne", s.ctx, M{"mail": "a@b.c"}, mock.Anything).Return(M{"_id": 5}, nil).Once()

	Unique{AttributeName: "mail", Collection: "accounts"}.ValidateAttribute(s.ctx, s.u, "email")

	s.False(s.u.HasErrors())
	s.Equal("accounts", s.u.conn.name)
}

func (s *ValidatorTestSuite) TestUniqueCaseInsensitive() {
	s.u.Email = "A.b"
	pattern := domain.Regex{Pattern: `^A\.b$`, Options: "i"}
	s.coll.On("FindOne", s.ctx, M{"email": pattern}, mock.Anything).Return(nil, nil).Once()

	Unique{CaseInsensitive: true}.ValidateAttribute(s.ctx, s.u, "email")

	s.False(s.u.HasErrors())
	s.coll.AssertExpectations(s.T())
}

func (s *ValidatorTestSuite) TestUniqueInvalid() {
	s.u.Code = A{1}
	Unique{}.ValidateAttribute(s.ctx, s.u, "code")
	s.Equal([]string{"Code is invalid."}, s.u.Errors()["code"])

	s.u.ClearErrors()
	s.u.Code = "x"
	s.coll.On("FindOne", s.ctx, mock.Anything, mock.Anything).Return(nil, errors.New("down")).Once()
	Unique{}.ValidateAttribute(s.ctx, s.u, "code")
	s.True(s.u.HasErrors("code"))

	// empty values are skipped before any lookup
	s.u.ClearErrors()
	s.u.Code = nil
	Unique{}.ValidateAttribute(s.ctx, s.u, "code")
	s.False(s.u.HasErrors())
	s.coll.AssertExpectations(s.T())
}

func (s *ValidatorTestSuite) TestSubDocumentSingle() {
	SubDocument{}.ValidateAttribute(s.ctx, s.u, "main")
	s.Equal(map[string][]string{"main.title": {"Title cannot be blank."}}, s.u.Errors())
	s.True(s.u.HasErrors("main"))

	s.u.ClearErrors()
	SubDocument{Message: "{attribute} is broken"}.ValidateAttribute(s.ctx, s.u, "main")
	s.Equal(map[string][]string{"main": {"Main is broken"}}, s.u.Errors())

	s.u.ClearErrors()
	SubDocument{Rules: []model.Rule{{Fields: []string{"title"}, Validator: Length{Max: 1}}}}.
		ValidateAttribute(s.ctx, s.u, "main")
	s.False(s.u.HasErrors())
}

func (s *ValidatorTestSuite) TestSubDocumentMulti() {
	s.NoError(s.u.Set("items", A{M{"title": "a"}, M{}, M{"title": "c"}}))

	SubDocument{}.ValidateAttribute(s.ctx, s.u, "items")

	s.Equal(map[string][]string{"items.1.title": {"Title cannot be blank."}}, s.u.Errors())
}

func TestValidatorTestSuite(t *testing.T) {
	suite.Run(t, new(ValidatorTestSuite))
}
