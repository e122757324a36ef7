package model

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/godm/domain"
)

type M = domain.Document

type A = domain.A

type address struct {
	Model
	Street string `odm:"street,safe"`
	City   string `odm:"city,safe"`
}

type phone struct {
	Model
	Number string `odm:"number,safe"`
}

type person struct {
	Model
	Name   string `odm:"name,safe"`
	Age    int    `odm:"age"`
	Email  string `odm:"email,omitempty"`
	Secret string `odm:"-"`
	unsafe []string
	inits  int
}

func (p *person) Init() { p.inits++ }

func (p *person) SubDocuments() map[string]SubDocument {
	return map[string]SubDocument{
		"address": {Kind: Single, New: Constructor[*address]()},
		"phones":  {Kind: Multi, New: Constructor[*phone]()},
	}
}

func (p *person) Rules() []Rule {
	return []Rule{
		{Fields: []string{"age"}, Validator: required{}, On: []string{ScenarioInsert}},
		{Fields: []string{"email"}, Validator: unsafeValidator{}},
	}
}

func (p *person) AttributeLabels() map[string]string {
	return map[string]string{"name": "Full name"}
}

func (p *person) OnUnsafeAttribute(name string, _ any) {
	p.unsafe = append(p.unsafe, name)
}

type required struct{}

func (required) ValidateAttribute(_ context.Context, obj Interface, attribute string) {
	m := Of(obj)
	v, _ := m.Get(attribute)
	if v == nil || v == 0 || v == "" {
		m.AddError(attribute, m.AttributeLabel(attribute)+" cannot be blank.")
	}
}

type unsafeValidator struct{}

func (unsafeValidator) ValidateAttribute(context.Context, Interface, string) {}

func (unsafeValidator) Unsafe() bool { return true }

type clash struct {
	Model
	Address string `odm:"address"`
}

func (c *clash) SubDocuments() map[string]SubDocument {
	return map[string]SubDocument{"address": {Kind: Single, New: Constructor[*address]()}}
}

type ModelTestSuite struct {
	suite.Suite
	p *person
}

func (s *ModelTestSuite) SetupTest() {
	var err error
	s.p, err = New[*person]()
	s.Require().NoError(err)
}

func (s *ModelTestSuite) TestNew() {
	s.Equal(ScenarioInsert, s.p.Scenario())
	s.Equal(1, s.p.inits)
	s.Equal([]string{"name", "age", "email"}, s.p.Schema().FieldNames())
	s.Equal([]string{"address", "phones"}, s.p.Schema().SubDocumentNames())

	// binding again only changes the scenario
	s.NoError(Bind(s.p, ScenarioUpdate))
	s.Equal(ScenarioUpdate, s.p.Scenario())
	s.Equal(1, s.p.inits)

	u, err := New[*person](ScenarioSearch)
	s.NoError(err)
	s.Equal(ScenarioSearch, u.Scenario())
}

func (s *ModelTestSuite) TestSchemaErrors() {
	_, err := New[*clash]()
	s.Error(err)
}

func (s *ModelTestSuite) TestGetSet() {
	s.NoError(s.p.Set("name", "john"))
	s.Equal("john", s.p.Name)
	s.Equal("john", s.p.Value("name"))

	s.NoError(s.p.Set("age", "42"))
	s.Equal(42, s.p.Age)
	s.NoError(s.p.Set("age", int64(7)))
	s.Equal(7, s.p.Age)
	s.NoError(s.p.Set("age", nil))
	s.Zero(s.p.Age)
	s.Error(s.p.Set("age", M{"a": 1}))

	s.NoError(s.p.Set("nickname", "jj"))
	v, ok := s.p.Get("nickname")
	s.True(ok)
	s.Equal("jj", v)

	_, ok = s.p.Get("missing")
	s.False(ok)
	s.False(s.p.Has("missing"))
	s.True(s.p.Has("address"))
	s.False(s.p.Has("Secret"))

	s.p.Unset("nickname")
	s.False(s.p.Has("nickname"))
}

func (s *ModelTestSuite) TestAttributeNames() {
	s.NoError(s.p.Set("zeta", 1))
	s.NoError(s.p.Set("beta", 2))
	s.Equal([]string{"name", "age", "email", "beta", "zeta", "address", "phones"}, s.p.AttributeNames())
}

func (s *ModelTestSuite) TestSetAttributesSafe() {
	err := s.p.SetAttributes(M{"name": "x", "age": 5, "email": "e", "hacker": 1}, true)
	s.NoError(err)
	s.Equal("x", s.p.Name)
	s.Equal(5, s.p.Age)
	s.Empty(s.p.Email)
	s.Equal([]string{"email", "hacker"}, s.p.unsafe)

	// the rule naming age does not apply to updates
	s.p.SetScenario(ScenarioUpdate)
	s.p.unsafe = nil
	s.NoError(s.p.SetAttributes(M{"age": 9}, true))
	s.Equal(5, s.p.Age)
	s.Equal([]string{"age"}, s.p.unsafe)

	s.NoError(s.p.SetAttributes(M{"age": 9, "email": "e"}, false))
	s.Equal(9, s.p.Age)
	s.Equal("e", s.p.Email)
}

func (s *ModelTestSuite) TestSetAttributesDigits() {
	s.NoError(s.p.SetAttributes(M{"code": "007", "zip": "12a"}, false))
	s.Equal(7, s.p.Value("code"))
	s.Equal("12a", s.p.Value("zip"))
}

func (s *ModelTestSuite) TestSingleSubDocument() {
	v, err := s.p.SubDocument("address")
	s.NoError(err)
	addr, ok := v.(*address)
	s.Require().True(ok)
	s.Equal(ScenarioInsert, addr.Scenario())

	s.NoError(s.p.Set("address", M{"street": "Main", "city": "Rio"}))
	s.Same(addr, s.p.Value("address"))
	s.Equal("Main", addr.Street)

	s.NoError(s.p.Set("address", nil))
	s.Empty(addr.Street)
	s.Empty(addr.City)

	other := &address{Street: "Other"}
	s.NoError(s.p.Set("address", other))
	s.Same(other, s.p.Value("address"))
	s.NotNil(other.Schema())

	s.ErrorIs(s.p.Set("address", 5), domain.ErrInvalidSubDocumentValue)
	_, err = s.p.SubDocument("nothing")
	s.ErrorIs(err, domain.ErrUnknownSubDocument)
	s.ErrorIs(s.p.SetSubDocument("nothing", M{}), domain.ErrUnknownSubDocument)
}

func (s *ModelTestSuite) TestMultiSubDocument() {
	s.NoError(s.p.Set("phones", A{M{"number": "1"}, M{"number": "2"}}))
	arr, ok := s.p.Value("phones").(*Array)
	s.Require().True(ok)
	s.Equal(2, arr.Len())

	first, err := arr.At(0)
	s.NoError(err)
	s.Equal("1", first.(*phone).Number)
	s.Equal(ScenarioUpdate, Of(first).Scenario())

	s.NoError(arr.Append(M{}))
	last, err := arr.At(2)
	s.NoError(err)
	s.Equal(ScenarioInsert, Of(last).Scenario())

	s.NoError(arr.InsertAt(0, M{"number": "0"}))
	s.NoError(arr.RemoveAt(3))
	s.Error(arr.RemoveAt(3))
	s.Error(arr.InsertAt(9, M{}))
	_, err = arr.At(-1)
	s.Error(err)
	s.ErrorIs(arr.Append(3), domain.ErrInvalidSubDocumentValue)

	var numbers []string
	for _, m := range arr.All() {
		numbers = append(numbers, m.(*phone).Number)
	}
	s.Equal([]string{"0", "1", "2"}, numbers)

	s.NoError(s.p.Set("phones", nil))
	s.Zero(arr.Len())
	s.ErrorIs(s.p.Set("phones", M{}), domain.ErrInvalidSubDocumentValue)
}

func (s *ModelTestSuite) TestDocument() {
	s.NoError(s.p.SetAttributes(M{
		"name":    "john",
		"age":     30,
		"address": M{"street": "Main"},
		"phones":  A{M{"number": "1"}},
		"extra":   M{"nested": A{1, 2}},
	}, false))

	expected := M{
		"name":    "john",
		"age":     30,
		"address": M{"street": "Main", "city": ""},
		"phones":  A{M{"number": "1"}},
		"extra":   M{"nested": A{1, 2}},
	}
	s.Empty(cmp.Diff(expected, s.p.AsDocument()))

	s.Equal(M{"name": "john", "email": ""}, s.p.AsDocument("name", "email", "missing"))
}

func (s *ModelTestSuite) TestDocumentRoundTrip() {
	s.NoError(s.p.SetAttributes(M{
		"name":    "john",
		"age":     30,
		"email":   "j@x.io",
		"address": M{"street": "Main", "city": "Rio"},
		"phones":  A{M{"number": "1"}, M{"number": "2"}},
	}, false))
	d := s.p.AsDocument()

	other, err := New[*person]()
	s.Require().NoError(err)
	s.NoError(other.SetAttributes(d, false))

	s.Empty(cmp.Diff(d, other.AsDocument()))
}

func (s *ModelTestSuite) TestFilterDocument() {
	addr, err := New[*address]()
	s.Require().NoError(err)
	addr.Street = "s"

	got := FilterDocument(M{"a": A{addr, M{"b": addr}}})
	s.Equal(M{"a": A{M{"street": "s", "city": ""}, M{"b": M{"street": "s", "city": ""}}}}, got)
	s.Equal(5, FilterDocument(5))
}

func (s *ModelTestSuite) TestClean() {
	s.NoError(s.p.SetAttributes(M{"name": "n", "age": 3, "dyn": 1, "address": M{"city": "c"}, "phones": A{M{}}}, false))
	s.NoError(s.p.Clean())

	s.Empty(s.p.Name)
	s.Zero(s.p.Age)
	s.Nil(s.p.Value("dyn"))
	s.Empty(s.p.Value("address").(*address).City)
	s.Zero(s.p.Value("phones").(*Array).Len())
}

func (s *ModelTestSuite) TestValidate() {
	ctx := context.Background()

	s.False(s.p.Validate(ctx))
	s.True(s.p.HasErrors())
	s.True(s.p.HasErrors("age"))
	s.False(s.p.HasErrors("name"))
	s.Equal(map[string][]string{"age": {"Age cannot be blank."}}, s.p.Errors())

	s.p.Age = 3
	s.True(s.p.Validate(ctx, "age"))
	s.False(s.p.HasErrors())

	s.p.Age = 0
	s.p.SetScenario(ScenarioUpdate)
	s.True(s.p.Validate(ctx))

	s.p.AddError("name", "bad")
	s.p.ClearErrors("name")
	s.False(s.p.HasErrors())
}

func (s *ModelTestSuite) TestLabels() {
	s.Equal("Full name", s.p.AttributeLabel("name"))
	s.Equal("Age", s.p.AttributeLabel("age"))
	s.Equal("First Name", GenerateLabel("first_name"))
	s.Equal("First Name", GenerateLabel("firstName"))
	s.Equal("Id", GenerateLabel("id"))
}

func (s *ModelTestSuite) TestScan() {
	s.NoError(s.p.SetAttributes(M{"name": "john", "age": 30, "address": M{"city": "Rio"}}, false))

	var plain struct {
		Name    string `odm:"name"`
		Age     int    `odm:"age"`
		Address struct {
			City string `odm:"city"`
		} `odm:"address"`
	}
	s.NoError(s.p.Scan(&plain))
	s.Equal("john", plain.Name)
	s.Equal(30, plain.Age)
	s.Equal("Rio", plain.Address.City)
}

func (s *ModelTestSuite) TestRuleAppliesTo() {
	r := Rule{On: []string{"a", "b"}, Except: []string{"b"}}
	s.True(r.AppliesTo("a"))
	s.False(r.AppliesTo("b"))
	s.False(r.AppliesTo("c"))
	s.True(Rule{}.AppliesTo("c"))
}

func TestModelTestSuite(t *testing.T) {
	suite.Run(t, new(ModelTestSuite))
}
