package timegetter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type TimeGetterTestSuite struct {
	suite.Suite
	tg *TimeGetter
}

func (s *TimeGetterTestSuite) SetupTest() {
	s.tg = NewTimeGetter().(*TimeGetter)
}

func (s *TimeGetterTestSuite) TestGetTime() {
	before := time.Now()

	result := s.tg.GetTime()

	after := time.Now()

	s.NotZero(result)
	s.False(result.Before(before))
	s.False(result.After(after))
}

func (s *TimeGetterTestSuite) TestLocation() {
	loc := time.FixedZone("UTC-3", -3*60*60)
	tg := NewTimeGetter(WithLocation(loc))

	s.Equal(loc, tg.GetTime().Location())
}

func (s *TimeGetterTestSuite) TestFixed() {
	at := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	tg := Fixed(at)

	s.Equal(at, tg.GetTime())
	s.Equal(at, tg.GetTime())
}

func TestTimeGetterTestSuite(t *testing.T) {
	suite.Run(t, new(TimeGetterTestSuite))
}
