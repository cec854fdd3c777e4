package service_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/service"
	"github.com/spec-kit/support-desk/pkg/id"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// bcrypt.MinCost keeps hashing fast in tests.
const testBcryptCost = 4

var _ = Describe("ProfileService", func() {
	var (
		ctx      context.Context
		profiles *memProfiles
		svc      *service.ProfileService
	)

	BeforeEach(func() {
		ctx = context.Background()
		profiles = newMemProfiles(domain.Profile{Email: "ann@desk.io", Name: "Ann", Role: domain.RoleCustomer})
		svc = service.NewProfileService(profiles, testBcryptCost)
	})

	It("inserts a customer with a hashed password", func() {
		profile, err := svc.Insert(ctx, service.ProfileInput{Email: " Bob@Desk.io ", Name: "Bob", Password: "pw"})
		Expect(err).NotTo(HaveOccurred())
		Expect(profile.Email).To(Equal("bob@desk.io"))
		Expect(profile.Role).To(Equal(domain.RoleCustomer))
		Expect(profile.PasswordHash).NotTo(Equal("pw"))
		Expect(auth.ComparePassword(profile.PasswordHash, "pw")).To(Succeed())
	})

	It("rejects duplicates", func() {
		_, err := svc.Insert(ctx, service.ProfileInput{Email: "ann@desk.io"})
		Expect(errors.Is(err, domain.ErrDuplicateProfile)).To(BeTrue())
	})

	It("rejects expert as a profile role", func() {
		_, err := svc.Insert(ctx, service.ProfileInput{Email: "x@desk.io", Role: domain.RoleExpert})
		Expect(apperrors.ToDomainError(err).Code).To(Equal("VALIDATION_FAILED"))
	})

	It("edits without changing the email", func() {
		profile, err := svc.Edit(ctx, "ann@desk.io", service.ProfileInput{Email: "ANN@desk.io", Surname: "Lee"})
		Expect(err).NotTo(HaveOccurred())
		Expect(profile.Name).To(Equal("Ann"))
		Expect(profile.Surname).To(Equal("Lee"))
	})

	It("refuses an email change", func() {
		_, err := svc.Edit(ctx, "ann@desk.io", service.ProfileInput{Email: "new@desk.io"})
		Expect(errors.Is(err, domain.ErrProfileEmailChangeNotAllowed)).To(BeTrue())
		stored, _ := svc.Get(ctx, "ann@desk.io")
		Expect(stored.Email).To(Equal("ann@desk.io"))
	})

	It("reports missing profiles", func() {
		_, err := svc.Edit(ctx, "ghost@desk.io", service.ProfileInput{Name: "x"})
		Expect(errors.Is(err, domain.ErrProfileNotFound)).To(BeTrue())
	})
})

var _ = Describe("ExpertService and ExpertiseService", func() {
	var (
		ctx          context.Context
		expertises   *memExpertises
		experts      *memExperts
		expertSvc    *service.ExpertService
		expertiseSvc *service.ExpertiseService
	)

	BeforeEach(func() {
		ctx = context.Background()
		Expect(id.Init(1)).To(Succeed())
		expertises = newMemExpertises("COMPUTER", "APPLIANCES")
		experts = newMemExperts(expertises)
		expertSvc = service.NewExpertService(experts, expertises, testBcryptCost)
		expertiseSvc = service.NewExpertiseService(expertises)
	})

	It("creates an expert with existing expertises", func() {
		expert, err := expertSvc.Insert(ctx, service.ExpertInput{Email: "e@desk.io", Password: "pw", Expertises: []string{"COMPUTER"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(expert.ID).NotTo(BeZero())
		Expect(expert.Expertises).To(ConsistOf("COMPUTER"))

		_, err = expertSvc.Insert(ctx, service.ExpertInput{Email: "e@desk.io", Password: "pw"})
		Expect(errors.Is(err, domain.ErrDuplicateExpert)).To(BeTrue())
	})

	It("rejects unknown expertises", func() {
		_, err := expertSvc.Insert(ctx, service.ExpertInput{Email: "e@desk.io", Password: "pw", Expertises: []string{"PLUMBING"}})
		Expect(errors.Is(err, domain.ErrExpertiseNotFound)).To(BeTrue())
		Expect(experts.byID).To(BeEmpty())
	})

	It("adds, lists by and removes expertise", func() {
		expert, err := expertSvc.Insert(ctx, service.ExpertInput{Email: "e@desk.io", Password: "pw"})
		Expect(err).NotTo(HaveOccurred())

		updated, err := expertSvc.AddExpertise(ctx, expert.ID, "APPLIANCES")
		Expect(err).NotTo(HaveOccurred())
		Expect(updated.Expertises).To(ConsistOf("APPLIANCES"))

		res, err := expertSvc.ListByExpertise(ctx, "APPLIANCES", service.PageRequest{})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Total).To(Equal(1))

		_, err = expertSvc.RemoveExpertise(ctx, expert.ID, "APPLIANCES")
		Expect(err).NotTo(HaveOccurred())
		_, err = expertSvc.RemoveExpertise(ctx, expert.ID, "APPLIANCES")
		Expect(errors.Is(err, domain.ErrExpertiseNotFound)).To(BeTrue())

		_, err = expertSvc.AddExpertise(ctx, 12345, "APPLIANCES")
		Expect(errors.Is(err, domain.ErrExpertNotFound)).To(BeTrue())
	})

	It("manages the expertise catalogue", func() {
		created, err := expertiseSvc.Create(ctx, " networking ")
		Expect(err).NotTo(HaveOccurred())
		Expect(created.Field).To(Equal("NETWORKING"))

		_, err = expertiseSvc.Create(ctx, "NETWORKING")
		Expect(errors.Is(err, domain.ErrDuplicateExpertise)).To(BeTrue())

		found, err := expertiseSvc.Search(ctx, "net", service.PageRequest{})
		Expect(err).NotTo(HaveOccurred())
		Expect(found.Items).To(HaveLen(1))

		Expect(expertiseSvc.Delete(ctx, "NETWORKING")).To(Succeed())
		Expect(errors.Is(expertiseSvc.Delete(ctx, "NETWORKING"), domain.ErrExpertiseNotFound)).To(BeTrue())
	})
})

var _ = Describe("ProductService", func() {
	It("saves, finds and searches products", func() {
		ctx := context.Background()
		svc := service.NewProductService(newMemProducts())

		_, err := svc.Save(ctx, domain.Product{ID: "8001234567890", Name: "Washing machine", Brand: "Acme"})
		Expect(err).NotTo(HaveOccurred())

		product, err := svc.Get(ctx, "8001234567890")
		Expect(err).NotTo(HaveOccurred())
		Expect(product.Brand).To(Equal("Acme"))

		res, err := svc.Search(ctx, "washing", service.PageRequest{})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Total).To(Equal(1))

		_, err = svc.Get(ctx, "missing")
		Expect(errors.Is(err, domain.ErrProductNotFound)).To(BeTrue())

		_, err = svc.Save(ctx, domain.Product{ID: "1"})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("MessageService", func() {
	var (
		ctx      context.Context
		tickets  *memTickets
		svc      *service.MessageService
		ticket   *domain.Ticket
		customer service.Caller
		expert   service.Caller
	)

	BeforeEach(func() {
		ctx = context.Background()
		Expect(id.Init(1)).To(Succeed())
		tickets = newMemTickets()
		ticket = domain.NewTicket("cust@desk.io", "p1", "COMPUTER", "obj", "arg", domain.RoleCustomer, time.Now())
		ticket.ExpertID = ptr(int64(7))
		Expect(tickets.Create(ctx, ticket)).To(Succeed())

		svc = service.NewMessageService(tickets, &memMessages{tickets: tickets}, newRecordingDispatcher(), zap.NewNop())
		customer = service.Caller{Role: domain.RoleCustomer, Email: "cust@desk.io"}
		expert = service.Caller{Role: domain.RoleExpert, Email: "e@desk.io", ExpertID: ptr(int64(7))}
	})

	It("numbers messages per ticket and counts unread ones", func() {
		first, err := svc.Add(ctx, customer, ticket.ID, "hello", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(first.Index).To(Equal(0))

		second, err := svc.Add(ctx, expert, ticket.ID, "hi, on it", []service.AttachmentInput{{FileName: "log.txt", ContentType: "text/plain", SizeBytes: 12, StorageKey: "k/1"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(second.Index).To(Equal(1))
		Expect(*second.ExpertID).To(Equal(int64(7)))
		Expect(second.Attachments).To(HaveLen(1))
		Expect(second.Attachments[0].MessageID).To(Equal(second.ID))

		unread, err := svc.Unread(ctx, customer, service.PageRequest{})
		Expect(err).NotTo(HaveOccurred())
		Expect(unread.Items).To(Equal([]domain.UnreadCount{{TicketID: ticket.ID, Unread: 1}}))

		Expect(svc.Ack(ctx, customer, ticket.ID, 1)).To(Succeed())
		unread, _ = svc.Unread(ctx, customer, service.PageRequest{})
		Expect(unread.Items).To(BeEmpty())
	})

	It("reports unknown messages and tickets", func() {
		Expect(errors.Is(svc.Ack(ctx, customer, ticket.ID, 9), domain.ErrMessageNotFound)).To(BeTrue())
		_, err := svc.Add(ctx, customer, 404, "x", nil)
		Expect(errors.Is(err, domain.ErrTicketNotFound)).To(BeTrue())
	})

	It("hides threads from other customers", func() {
		_, err := svc.ListByTicket(ctx, service.Caller{Role: domain.RoleCustomer, Email: "other@desk.io"}, ticket.ID, service.PageRequest{})
		Expect(apperrors.ToDomainError(err).Code).To(Equal("FORBIDDEN"))
	})

	It("requires a body or an attachment", func() {
		_, err := svc.Add(ctx, customer, ticket.ID, "   ", nil)
		Expect(apperrors.ToDomainError(err).Code).To(Equal("VALIDATION_FAILED"))
	})
})

var _ = Describe("AuthService", func() {
	var (
		ctx context.Context
		svc *service.AuthService
	)

	BeforeEach(func() {
		ctx = context.Background()
		Expect(id.Init(1)).To(Succeed())
		profiles := newMemProfiles()
		expertises := newMemExpertises("COMPUTER")
		experts := newMemExperts(expertises)
		cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 5}}
		svc = service.NewAuthService(cfg, service.AuthDependencies{
			ProfileRepo:    profiles,
			ExpertRepo:     experts,
			ProfileService: service.NewProfileService(profiles, testBcryptCost),
			ExpertService:  service.NewExpertService(experts, expertises, testBcryptCost),
		})
	})

	It("signs up a customer and logs it back in", func() {
		profile, session, err := svc.Signup(ctx, service.ProfileInput{Email: "c@desk.io", Password: "pw", Role: domain.RoleManager})
		Expect(err).NotTo(HaveOccurred())
		Expect(profile.Role).To(Equal(domain.RoleCustomer))
		Expect(session.Token).NotTo(BeEmpty())

		session, err = svc.Login(ctx, "C@desk.io", "pw")
		Expect(err).NotTo(HaveOccurred())
		claims, err := svc.TokenManager().ParseToken(session.Token)
		Expect(err).NotTo(HaveOccurred())
		Expect(claims.Kind).To(Equal(domain.SubjectTypeProfile))
		Expect(claims.Role).To(Equal(domain.RoleCustomer))

		_, err = svc.Login(ctx, "c@desk.io", "wrong")
		Expect(apperrors.ToDomainError(err).Code).To(Equal("UNAUTHORIZED"))
	})

	It("logs in experts with their id", func() {
		expert, err := svc.CreateExpert(ctx, service.ExpertInput{Email: "e@desk.io", Password: "pw", Expertises: []string{"COMPUTER"}})
		Expect(err).NotTo(HaveOccurred())

		session, err := svc.Login(ctx, "e@desk.io", "pw")
		Expect(err).NotTo(HaveOccurred())
		Expect(session.Principal.Role).To(Equal(domain.RoleExpert))
		Expect(*session.Principal.ExpertID).To(Equal(expert.ID))

		me, err := svc.Me(ctx, session.Principal)
		Expect(err).NotTo(HaveOccurred())
		Expect(me.Expert.Email).To(Equal("e@desk.io"))
	})

	It("rejects unknown accounts", func() {
		_, err := svc.Login(ctx, "nobody@desk.io", "pw")
		Expect(apperrors.ToDomainError(err).Code).To(Equal("UNAUTHORIZED"))
	})
})

var _ = Describe("NotificationService", func() {
	It("forwards every event type when a sink is configured", func() {
		dispatcher := events.NewInMemoryDispatcher()
		var forwarded []events.EventType
		forward := func(_ context.Context, e events.Event) error {
			forwarded = append(forwarded, e.Type)
			return nil
		}
		service.NewNotificationService(dispatcher, forward, zap.NewNop(), config.EventsConfig{LogEvents: true}).RegisterHandlers()

		for _, t := range events.AllEventTypes {
			Expect(dispatcher.Publish(context.Background(), events.Event{Type: t})).To(Succeed())
		}
		Expect(forwarded).To(Equal(events.AllEventTypes))
	})
})
