package mongodriver

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/godm/adapter/connection"
	"github.com/vinicius-lino-figueiredo/godm/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

type M = domain.Document

type A = domain.A

type DriverTestSuite struct {
	suite.Suite
	d *Driver
}

func (s *DriverTestSuite) SetupTest() {
	s.d = NewDriver()
}

func (s *DriverTestSuite) TestToBSON() {
	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	got := toBSON(M{
		"name":  "ann",
		"when":  when,
		"tags":  A{"a", M{"b": 1}},
		"re":    domain.Regex{Pattern: "^a", Options: "i"},
		"std":   regexp.MustCompile("b+"),
		"ref":   domain.DBRef{Ref: "groups", ID: "g1"},
		"order": domain.Sort{{Key: "a", Order: -3}},
	})
	s.Equal(bson.M{
		"name":  "ann",
		"when":  when,
		"tags":  bson.A{"a", bson.M{"b": 1}},
		"re":    primitive.Regex{Pattern: "^a", Options: "i"},
		"std":   primitive.Regex{Pattern: "b+"},
		"ref":   bson.D{{Key: "$ref", Value: "groups"}, {Key: "$id", Value: "g1"}},
		"order": bson.D{{Key: "a", Value: int32(-1)}},
	}, got)
}

func (s *DriverTestSuite) TestRefDocumentToBSON() {
	got := toBSON(M{"$ref": "groups", "$id": 1, "$db": "other"})
	s.Equal(bson.D{
		{Key: "$ref", Value: "groups"},
		{Key: "$id", Value: 1},
		{Key: "$db", Value: "other"},
	}, got)
}

func (s *DriverTestSuite) TestFromBSON() {
	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	got := documentOf(bson.M{
		"when": primitive.NewDateTimeFromTime(when),
		"re":   primitive.Regex{Pattern: "x", Options: "m"},
		"list": bson.A{int32(1), bson.D{{Key: "k", Value: "v"}}},
		"ref":  bson.M{"$ref": "groups", "$id": "g1"},
		"sub":  bson.M{"a": bson.M{"b": "c"}},
	})
	s.Equal(M{
		"when": when,
		"re":   domain.Regex{Pattern: "x", Options: "m"},
		"list": A{int32(1), M{"k": "v"}},
		"ref":  domain.DBRef{Ref: "groups", ID: "g1"},
		"sub":  M{"a": M{"b": "c"}},
	}, got)
	s.Nil(documentOf(nil))
}

func (s *DriverTestSuite) TestSortOf() {
	s.Nil(sortOf(nil))
	s.Equal(bson.D{
		{Key: "b", Value: int32(1)},
		{Key: "a", Value: int32(-1)},
	}, sortOf(domain.Sort{{Key: "b", Order: 2}, {Key: "a", Order: -1}}))
}

func (s *DriverTestSuite) TestCommandOf() {
	got := commandOf(M{"query": M{"a": 1}, "count": "users"})
	s.Equal(bson.D{
		{Key: "count", Value: "users"},
		{Key: "query", Value: bson.M{"a": 1}},
	}, got)

	got = commandOf(M{"zeta": 1, "alpha": 2})
	s.Equal("alpha", got[0].Key)
}

func (s *DriverTestSuite) TestWriteConcernOf() {
	s.Nil(writeConcernOf(domain.WriteConcern{}))

	j := true
	wc := writeConcernOf(domain.WriteConcern{W: int64(2), J: &j})
	s.Equal(2, wc.W)
	s.Require().NotNil(wc.Journal)
	s.True(*wc.Journal)

	wc = writeConcernOf(domain.WriteConcern{W: "majority"})
	s.Equal("majority", wc.W)
	s.Nil(wc.Journal)
}

func (s *DriverTestSuite) TestReadPreferenceOf() {
	rp, err := readPreferenceOf("", nil)
	s.NoError(err)
	s.Nil(rp)

	rp, err = readPreferenceOf("secondaryPreferred", []map[string]string{{"dc": "east"}})
	s.Require().NoError(err)
	s.Equal(readpref.SecondaryPreferredMode, rp.Mode())
	s.Len(rp.TagSets(), 1)

	_, err = readPreferenceOf("nowhere", nil)
	s.Error(err)
}

func (s *DriverTestSuite) TestHasOperators() {
	s.True(hasOperators(M{"$set": M{"a": 1}}))
	s.False(hasOperators(M{"a": 1}))
}

func (s *DriverTestSuite) TestIDs() {
	id, ok := s.d.NewID().(primitive.ObjectID)
	s.Require().True(ok)
	s.False(id.IsZero())

	got, err := s.d.ToID(id.Hex())
	s.NoError(err)
	s.Equal(id, got)

	got, err = s.d.ToID(id)
	s.NoError(err)
	s.Equal(id, got)

	_, err = s.d.ToID("not-an-id")
	s.ErrorIs(err, ErrInvalidID)
	_, err = s.d.ToID(42)
	s.ErrorIs(err, ErrInvalidID)
}

func (s *DriverTestSuite) TestNotConnected() {
	ctx := context.Background()
	coll := s.d.Database("app").Collection("users")
	s.Equal("users", coll.Name())

	_, err := coll.FindOne(ctx, M{}, domain.FindOptions{})
	s.ErrorIs(err, domain.ErrNotConnected)
	_, err = coll.Insert(ctx, []M{{"_id": 1}}, domain.WriteConcern{})
	s.ErrorIs(err, domain.ErrNotConnected)
	_, err = s.d.Database("app").RunCommand(ctx, M{"ping": 1})
	s.ErrorIs(err, domain.ErrNotConnected)
	s.NoError(s.d.Disconnect(ctx))
}

func (s *DriverTestSuite) TestConnectInvalidURI() {
	d := NewDriver(WithURI("http://nowhere"))
	err := d.Connect(context.Background())
	s.Error(err)
	s.False(errors.Is(err, domain.ErrNotConnected))
}

func (s *DriverTestSuite) TestProvideDriver() {
	d := ProvideDriver(connection.Config{
		Server:         "mongodb://db:27017",
		ReadPreference: "nearest",
	}, zap.NewNop())
	s.Equal("mongodb://db:27017", d.uri)
	s.Equal("nearest", d.mode)

	d = ProvideDriver(connection.Config{}, nil)
	s.Equal(DefaultURI, d.uri)
	s.NotNil(d.logger)
}

func TestDriverTestSuite(t *testing.T) {
	suite.Run(t, new(DriverTestSuite))
}
