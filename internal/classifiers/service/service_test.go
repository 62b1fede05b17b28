package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"promisetracker/internal/access"
	"promisetracker/internal/classifiers/models"
	"promisetracker/internal/storage/memory"
	"promisetracker/internal/testfixtures"
	id "promisetracker/pkg/domain"
	dErrors "promisetracker/pkg/domain-errors"
	audit "promisetracker/pkg/platform/audit"
	"promisetracker/pkg/requestcontext"
)

type recordingAuditor struct {
	events []audit.Event
}

func (r *recordingAuditor) Emit(_ context.Context, event audit.Event) error {
	r.events = append(r.events, event)
	return nil
}

func (r *recordingAuditor) actions() []string {
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Action)
	}
	return out
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) Invalidate(context.Context) { c.calls++ }

type ServiceSuite struct {
	suite.Suite
	store       *memory.Store
	auditor     *recordingAuditor
	invalidator *countingInvalidator
	service     *Service
	admin       access.Actor
	ctx         context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = memory.New()
	s.auditor = &recordingAuditor{}
	s.invalidator = &countingInvalidator{}
	s.service = New(memory.NewTx[Store](s.store),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(s.auditor),
		WithAnalyticsInvalidator(s.invalidator),
	)
	s.admin = access.Administrator(id.NewUserID(), true)
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
}

func (s *ServiceSuite) requireCode(err error, code dErrors.Code, msg string) {
	s.T().Helper()
	de, ok := dErrors.As(err)
	s.Require().True(ok, "expected domain error, got %v", err)
	s.Equal(code, de.Code)
	if msg != "" {
		s.Equal(msg, de.Message)
	}
}

func (s *ServiceSuite) party(opts ...testfixtures.PartyOption) *models.PoliticalParty {
	p := testfixtures.Party(opts...)
	s.Require().NoError(s.store.CreateParty(s.ctx, p))
	return p
}

func date(y int, m time.Month, d int) *time.Time {
	t := testfixtures.Date(y, m, d)
	return &t
}

func (s *ServiceSuite) TestCreateParty() {
	party, err := s.service.CreateParty(s.ctx, s.admin, models.PartyInput{
		Name:            "  Labour  ",
		EstablishedDate: time.Date(1990, 4, 1, 15, 30, 0, 0, time.UTC),
	})
	s.Require().NoError(err)
	s.Equal("Labour", party.Name)
	s.Equal(testfixtures.Date(1990, time.April, 1), party.EstablishedDate)
	s.Require().NotNil(party.CreatedBy)
	s.Equal(s.admin.UserID(), *party.CreatedBy)
	s.Equal([]string{string(audit.EventPartyCreated)}, s.auditor.actions())

	stored, err := s.store.FindParty(s.ctx, party.ID)
	s.Require().NoError(err)
	s.Equal("Labour", stored.Name)
}

func (s *ServiceSuite) TestCreatePartyRules() {
	cases := []struct {
		name string
		in   models.PartyInput
		code dErrors.Code
		msg  string
	}{
		{"blank name", models.PartyInput{Name: "  ", EstablishedDate: *date(2000, 1, 1)}, dErrors.CodeValidation, "name is required"},
		{"missing established", models.PartyInput{Name: "A"}, dErrors.CodeValidation, "established_date is required"},
		{"established in future", models.PartyInput{Name: "A", EstablishedDate: *date(2030, 1, 1)}, dErrors.CodeApplication, PartyEstablishedInFutureMessage},
		{"liquidated in future", models.PartyInput{Name: "A", EstablishedDate: *date(2000, 1, 1), LiquidatedDate: date(2030, 1, 1)}, dErrors.CodeApplication, PartyLiquidatedInFutureMessage},
		{"liquidated before established", models.PartyInput{Name: "A", EstablishedDate: *date(2000, 1, 1), LiquidatedDate: date(1999, 1, 1)}, dErrors.CodeApplication, PartyLiquidatedBeforeEstablished},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.service.CreateParty(s.ctx, s.admin, tc.in)
			s.requireCode(err, tc.code, tc.msg)
		})
	}

	s.Run("same day liquidation is allowed", func() {
		_, err := s.service.CreateParty(s.ctx, s.admin, models.PartyInput{
			Name: "Same Day", EstablishedDate: *date(2000, 1, 1), LiquidatedDate: date(2000, 1, 1),
		})
		s.NoError(err)
	})
}

func (s *ServiceSuite) TestCreatePartyDuplicateName() {
	s.party(testfixtures.PartyName("Greens"))
	_, err := s.service.CreateParty(s.ctx, s.admin, models.PartyInput{Name: "Greens", EstablishedDate: *date(2000, 1, 1)})
	s.requireCode(err, dErrors.CodeApplication, "A political party Greens already exists.")
}

func (s *ServiceSuite) TestEditParty() {
	p := s.party()

	edited, err := s.service.EditParty(s.ctx, s.admin, p.ID, models.PartyInput{
		Name: "Renamed", EstablishedDate: p.EstablishedDate, LiquidatedDate: date(2020, 5, 5),
	})
	s.Require().NoError(err)
	s.Equal("Renamed", edited.Name)
	s.Require().NotNil(edited.LiquidatedDate)
	s.Equal(1, s.invalidator.calls)

	_, err = s.service.EditParty(s.ctx, s.admin, id.NewPartyID(), models.PartyInput{Name: "X", EstablishedDate: *date(2000, 1, 1)})
	s.requireCode(err, dErrors.CodeNotFound, PartyNotFoundMessage)
}

func (s *ServiceSuite) TestDeleteParty() {
	s.Run("unused party", func() {
		p := s.party()
		s.Require().NoError(s.service.DeleteParty(s.ctx, s.admin, p.ID))
		_, err := s.store.FindParty(s.ctx, p.ID)
		s.Error(err)
	})
	s.Run("elected party", func() {
		p := s.party()
		s.Require().NoError(s.store.CreateConvocation(s.ctx, testfixtures.Convocation([]*models.PoliticalParty{p})))
		err := s.service.DeleteParty(s.ctx, s.admin, p.ID)
		s.requireCode(err, dErrors.CodeApplication, PartyCannotDeleteElectedMessage)
	})
	s.Run("party with promises", func() {
		p := s.party()
		c := testfixtures.Convocation(nil)
		s.Require().NoError(s.store.CreateConvocation(s.ctx, c))
		s.Require().NoError(s.store.CreatePromise(s.ctx, testfixtures.Promise(p, c)))
		err := s.service.DeleteParty(s.ctx, s.admin, p.ID)
		s.requireCode(err, dErrors.CodeApplication, PartyCannotDeleteHasPromisesMessage)
	})
	s.Run("unknown party", func() {
		err := s.service.DeleteParty(s.ctx, s.admin, id.NewPartyID())
		s.requireCode(err, dErrors.CodeNotFound, PartyNotFoundMessage)
	})
}

func (s *ServiceSuite) TestCreateConvocation() {
	a := s.party()
	b := s.party()

	c, err := s.service.CreateConvocation(s.ctx, s.admin, models.ConvocationInput{
		Name:      "IX",
		StartDate: *date(2010, 1, 1),
		EndDate:   date(2014, 1, 1),
		PartyIDs:  []id.PartyID{a.ID, b.ID},
	})
	s.Require().NoError(err)
	s.ElementsMatch([]id.PartyID{a.ID, b.ID}, c.PartyIDs)

	_, err = s.service.CreateConvocation(s.ctx, s.admin, models.ConvocationInput{Name: "IX", StartDate: *date(2015, 1, 1)})
	s.requireCode(err, dErrors.CodeApplication, "Convocation IX already exists!")
}

func (s *ServiceSuite) TestCreateConvocationRules() {
	known := s.party()
	liquidated := s.party(testfixtures.Liquidated(testfixtures.Date(2005, time.January, 1)))
	young := s.party(testfixtures.Established(testfixtures.Date(2016, time.January, 1)))

	cases := []struct {
		name string
		in   models.ConvocationInput
		msg  string
	}{
		{"start in future", models.ConvocationInput{Name: "A", StartDate: *date(2030, 1, 1)}, ConvocationStartInFutureMessage},
		{"end in future", models.ConvocationInput{Name: "A", StartDate: *date(2010, 1, 1), EndDate: date(2030, 1, 1)}, ConvocationEndInFutureMessage},
		{"end before start", models.ConvocationInput{Name: "A", StartDate: *date(2010, 1, 1), EndDate: date(2009, 1, 1)}, ConvocationEndBeforeStartMessage},
		{"unknown party", models.ConvocationInput{Name: "A", StartDate: *date(2010, 1, 1), PartyIDs: []id.PartyID{id.NewPartyID()}}, ConvocationPartiesInvalidMessage},
		{"duplicate party", models.ConvocationInput{Name: "A", StartDate: *date(2010, 1, 1), PartyIDs: []id.PartyID{known.ID, known.ID}}, ConvocationPartiesInvalidMessage},
		{"liquidated before term", models.ConvocationInput{Name: "A", StartDate: *date(2010, 1, 1), PartyIDs: []id.PartyID{liquidated.ID}}, "Party " + liquidated.Name + " liquidated date is smaller than convocation start date!"},
		{"established after term", models.ConvocationInput{Name: "A", StartDate: *date(2010, 1, 1), EndDate: date(2014, 1, 1), PartyIDs: []id.PartyID{young.ID}}, "Party " + young.Name + " established date is greater than convocation end date!"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.service.CreateConvocation(s.ctx, s.admin, tc.in)
			s.requireCode(err, dErrors.CodeApplication, tc.msg)
		})
	}
}

func (s *ServiceSuite) TestEditConvocationReplacesParties() {
	a := s.party()
	b := s.party()
	c := testfixtures.Convocation([]*models.PoliticalParty{a})
	s.Require().NoError(s.store.CreateConvocation(s.ctx, c))

	edited, err := s.service.EditConvocation(s.ctx, s.admin, c.ID, models.ConvocationInput{
		Name: c.Name, StartDate: c.StartDate, EndDate: c.EndDate, PartyIDs: []id.PartyID{b.ID},
	})
	s.Require().NoError(err)
	s.Equal([]id.PartyID{b.ID}, edited.PartyIDs)

	_, err = s.service.EditConvocation(s.ctx, s.admin, id.NewConvocationID(), models.ConvocationInput{Name: "X", StartDate: *date(2010, 1, 1)})
	s.requireCode(err, dErrors.CodeNotFound, ConvocationNotFoundMessage)
}

func (s *ServiceSuite) TestDeleteConvocation() {
	p := s.party()
	used := testfixtures.Convocation([]*models.PoliticalParty{p})
	free := testfixtures.Convocation(nil)
	s.Require().NoError(s.store.CreateConvocation(s.ctx, used))
	s.Require().NoError(s.store.CreateConvocation(s.ctx, free))
	s.Require().NoError(s.store.CreatePromise(s.ctx, testfixtures.Promise(p, used)))

	err := s.service.DeleteConvocation(s.ctx, s.admin, used.ID)
	s.requireCode(err, dErrors.CodeApplication, ConvocationCannotDeleteHasPromisesMsg)

	s.Require().NoError(s.service.DeleteConvocation(s.ctx, s.admin, free.ID))
	s.Contains(s.auditor.actions(), string(audit.EventConvocationDeleted))
}
