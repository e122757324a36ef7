package connection

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/godm/domain"
)

type M = domain.Document

type driverMock struct{ mock.Mock }

func (d *driverMock) Connect(ctx context.Context) error {
	return d.Called(ctx).Error(0)
}

func (d *driverMock) Disconnect(ctx context.Context) error {
	return d.Called(ctx).Error(0)
}

func (d *driverMock) Database(name string) domain.Database {
	return d.Called(name).Get(0).(domain.Database)
}

func (d *driverMock) NewID() any {
	return d.Called().Get(0)
}

func (d *driverMock) ToID(v any) (any, error) {
	call := d.Called(v)
	return call.Get(0), call.Error(1)
}

type databaseMock struct{ mock.Mock }

func (d *databaseMock) Name() string { return d.Called().String(0) }

func (d *databaseMock) Collection(name string) domain.Collection {
	return d.Called(name).Get(0).(domain.Collection)
}

func (d *databaseMock) Dereference(ctx context.Context, ref domain.DBRef) (domain.Document, error) {
	call := d.Called(ctx, ref)
	res, _ := call.Get(0).(domain.Document)
	return res, call.Error(1)
}

func (d *databaseMock) RunCommand(ctx context.Context, cmd domain.Document) (domain.Document, error) {
	call := d.Called(ctx, cmd)
	res, _ := call.Get(0).(domain.Document)
	return res, call.Error(1)
}

type collectionMock struct {
	mock.Mock
	domain.Collection
}

func (c *collectionMock) Count(ctx context.Context, filter domain.Document, opts domain.CountOptions) (int64, error) {
	call := c.Called(ctx, filter, opts)
	return call.Get(0).(int64), call.Error(1)
}

type ConnectionTestSuite struct {
	suite.Suite
	driver *driverMock
	db     *databaseMock
	conn   *Connection
	ctx    context.Context
}

func (s *ConnectionTestSuite) SetupTest() {
	s.driver = new(driverMock)
	s.db = new(databaseMock)
	s.ctx = context.Background()
	s.conn = New(s.driver, WithServer("mongodb://localhost"), WithDatabase("app"))
}

func (s *ConnectionTestSuite) TestConnectOnce() {
	s.driver.On("Connect", s.ctx).Return(nil).Once()

	s.NoError(s.conn.Connect(s.ctx))
	s.NoError(s.conn.Connect(s.ctx))
	s.True(s.conn.IsConnected())
	s.driver.AssertNumberOfCalls(s.T(), "Connect", 1)
}

func (s *ConnectionTestSuite) TestConnectError() {
	errConn := errors.New("unreachable")
	s.driver.On("Connect", s.ctx).Return(errConn).Once()

	err := s.conn.Connect(s.ctx)
	var connErr *domain.ConnectionError
	s.ErrorAs(err, &connErr)
	s.Equal("mongodb://localhost", connErr.Server)
	s.ErrorIs(err, errConn)
	s.False(s.conn.IsConnected())
}

func (s *ConnectionTestSuite) TestConnectCanceled() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	s.ErrorIs(s.conn.Connect(ctx), context.Canceled)
	s.driver.AssertNotCalled(s.T(), "Connect", mock.Anything)
}

func (s *ConnectionTestSuite) TestLazyCollection() {
	coll := new(collectionMock)
	coll.On("Count", s.ctx, M{"a": 1}, domain.CountOptions{}).Return(int64(3), nil)
	s.db.On("Collection", "users").Return(coll)
	s.driver.On("Connect", s.ctx).Return(nil).Once()
	s.driver.On("Database", "app").Return(s.db).Once()

	handle := s.conn.Collection("users")
	s.Equal("users", handle.Name())
	s.False(s.conn.IsConnected())

	n, err := handle.Count(s.ctx, M{"a": 1}, domain.CountOptions{})
	s.NoError(err)
	s.EqualValues(3, n)
	s.True(s.conn.IsConnected())

	_, err = handle.Count(s.ctx, M{"a": 1}, domain.CountOptions{})
	s.NoError(err)
	s.driver.AssertNumberOfCalls(s.T(), "Database", 1)
}

func (s *ConnectionTestSuite) TestSetDatabase() {
	s.driver.On("Connect", s.ctx).Return(nil)
	s.driver.On("Database", "app").Return(s.db).Once()
	other := new(databaseMock)
	s.driver.On("Database", "other").Return(other).Once()

	db, err := s.conn.Database(s.ctx)
	s.NoError(err)
	s.Same(s.db, db)

	s.conn.SetDatabase("other")
	s.Equal("other", s.conn.DatabaseName())
	db, err = s.conn.Database(s.ctx)
	s.NoError(err)
	s.Same(other, db)
}

func (s *ConnectionTestSuite) TestWriteConcern() {
	wc := s.conn.DefaultWriteConcern()
	s.Equal(1, wc.W)
	s.False(wc.Journal())

	j := true
	s.conn = New(s.driver, WithWriteConcern(domain.WriteConcern{W: "majority", J: &j}))
	wc = s.conn.DefaultWriteConcern()
	s.Equal("majority", wc.W)
	s.True(wc.Journal())

	// the returned value is a copy
	*wc.J = false
	s.True(s.conn.DefaultWriteConcern().Journal())
}

func (s *ConnectionTestSuite) TestExecute() {
	s.driver.On("Connect", s.ctx).Return(nil)
	s.driver.On("Database", "app").Return(s.db)
	s.db.On("RunCommand", s.ctx, M{"eval": "1"}).Return(M{"ok": 1.0, "retval": 1}, nil).Once()
	s.db.On("RunCommand", s.ctx, M{"eval": "2"}).Return(M{"ok": 0}, nil).Once()

	res, err := s.conn.Execute(s.ctx, M{"eval": "1"})
	s.NoError(err)
	s.Equal(1, res)

	res, err = s.conn.Execute(s.ctx, M{"eval": "2"})
	s.NoError(err)
	s.Equal(false, res)
}

func (s *ConnectionTestSuite) TestClose() {
	s.NoError(s.conn.Close(s.ctx))
	s.driver.AssertNotCalled(s.T(), "Disconnect", mock.Anything)

	s.driver.On("Connect", s.ctx).Return(nil)
	s.driver.On("Disconnect", s.ctx).Return(nil).Once()
	s.NoError(s.conn.Connect(s.ctx))
	s.NoError(s.conn.Close(s.ctx))
	s.False(s.conn.IsConnected())
}

func (s *ConnectionTestSuite) TestLoadConfig() {
	path := filepath.Join(s.T().TempDir(), "godm.yaml")
	content := `
driver: memory
server: mongodb://db:27017
database: shop
w: "2"
j: true
readPreference: secondaryPreferred
readPreferenceTags:
  - dc: east
`
	s.NoError(os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	s.NoError(err)
	s.Equal("memory", cfg.Driver)
	s.Equal("shop", cfg.Database)
	s.Equal(2, cfg.W)
	s.True(cfg.J)
	s.Equal("secondaryPreferred", cfg.ReadPreference)
	s.Equal([]map[string]string{{"dc": "east"}}, cfg.ReadPreferenceTags)

	conn := New(s.driver, WithConfig(cfg))
	s.Equal("shop", conn.DatabaseName())
	s.Equal("mongodb://db:27017", conn.Server())
	s.Equal(2, conn.DefaultWriteConcern().W)
	mode, tags := conn.ReadPreference()
	s.Equal("secondaryPreferred", mode)
	s.Len(tags, 1)
}

func (s *ConnectionTestSuite) TestConfigDefaults() {
	cfg, err := ConfigFromMap(map[string]any{"w": "majority"})
	s.NoError(err)
	s.Equal("mongo", cfg.Driver)
	s.Equal(DefaultDatabase, cfg.Database)
	s.Equal("majority", cfg.W)

	cfg, err = ConfigFromMap(map[string]any{})
	s.NoError(err)
	s.Equal(1, cfg.W)

	_, err = LoadConfig(filepath.Join(s.T().TempDir(), "missing.yaml"))
	s.ErrorIs(err, os.ErrNotExist)
}

func TestConnectionTestSuite(t *testing.T) {
	suite.Run(t, new(ConnectionTestSuite))
}
